package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/models"
)

// GetSettings returns the stored settings with defaults filled in. A store
// without settings, or with unreadable ones, reports the defaults.
func GetSettings(kv KV) (models.Settings, error) {
	data, ok, err := kv.Get(constants.LocalSettingsKey)
	if err != nil {
		return models.Settings{}, err
	}
	var s models.Settings
	if ok {
		if err := json.Unmarshal(data, &s); err != nil {
			return models.DefaultSettings(), nil
		}
	}
	return s.WithDefaults(), nil
}

func SaveSettings(kv KV, s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	return kv.Set(constants.LocalSettingsKey, data)
}

// EnsureSettings writes default settings, with a fresh client id, when the
// store has none yet, and backfills a missing client id otherwise.
func EnsureSettings(kv KV) (models.Settings, error) {
	s, err := GetSettings(kv)
	if err != nil {
		return s, err
	}
	if s.ClientID != "" {
		return s, nil
	}
	s.ClientID = uuid.NewString()
	if err := SaveSettings(kv, s); err != nil {
		return s, fmt.Errorf("failed to save default settings: %w", err)
	}
	return s, nil
}
