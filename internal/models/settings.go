package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/rollcall/internal/constants"
)

// Settings represents application-wide settings
type Settings struct {
	Timezone      string  `json:"timezone"`       // IANA timezone name, or "Local" for the system timezone
	BusyThreshold float64 `json:"busy_threshold"` // calendar ratio at or above which a day is busy
	SlowThreshold float64 `json:"slow_threshold"` // calendar ratio at or below which a day is slow
	TrendDays     int     `json:"trend_days"`     // length of the trends window in days
	ClientID      string  `json:"client_id"`      // stamped on saved payloads as updatedBy
}

// DefaultSettings returns the settings a fresh store starts with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:      constants.DefaultTimezone,
		BusyThreshold: constants.DefaultBusyThreshold,
		SlowThreshold: constants.DefaultSlowThreshold,
		TrendDays:     constants.DefaultTrendDays,
	}
}

// WithDefaults fills zero fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Timezone == "" {
		s.Timezone = d.Timezone
	}
	if s.BusyThreshold == 0 {
		s.BusyThreshold = d.BusyThreshold
	}
	if s.SlowThreshold == 0 {
		s.SlowThreshold = d.SlowThreshold
	}
	if s.TrendDays == 0 {
		s.TrendDays = d.TrendDays
	}
	return s
}

// Set updates a single setting from its string form.
func (s *Settings) Set(key, value string) error {
	switch key {
	case constants.SettingTimezone:
		s.Timezone = value
	case constants.SettingBusyThreshold, constants.SettingSlowThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", key, f)
		}
		if key == constants.SettingBusyThreshold {
			s.BusyThreshold = f
		} else {
			s.SlowThreshold = f
		}
	case constants.SettingTrendDays:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		if n < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", key, n)
		}
		s.TrendDays = n
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

// Map returns the settings as key/value strings for display.
func (s Settings) Map() map[string]string {
	return map[string]string{
		constants.SettingTimezone:      s.Timezone,
		constants.SettingBusyThreshold: strconv.FormatFloat(s.BusyThreshold, 'f', -1, 64),
		constants.SettingSlowThreshold: strconv.FormatFloat(s.SlowThreshold, 'f', -1, 64),
		constants.SettingTrendDays:     strconv.Itoa(s.TrendDays),
	}
}
