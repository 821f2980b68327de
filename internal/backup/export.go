package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/storage"
)

// ErrInvalidBackup is returned for import files that are not a rollcall export.
var ErrInvalidBackup = errors.New("invalid backup file")

var validate = validator.New()

// ExportFile is the portable JSON backup of a snapshot.
type ExportFile struct {
	ExportedAt time.Time                  `json:"exportedAt"`
	People     []models.Person            `json:"people" validate:"required,dive"`
	Teams      []models.Team              `json:"teams,omitempty" validate:"dive"`
	Attendance map[string]json.RawMessage `json:"attendance" validate:"required"`
}

// Export wraps a snapshot for writing.
func Export(snap storage.Snapshot, now time.Time) ExportFile {
	people := snap.People
	if people == nil {
		people = []models.Person{}
	}
	days := snap.Attendance
	if days == nil {
		days = map[string]json.RawMessage{}
	}
	return ExportFile{
		ExportedAt: now.UTC(),
		People:     people,
		Teams:      snap.Teams,
		Attendance: days,
	}
}

// DefaultExportName is the file name offered for an export taken on today.
func DefaultExportName(today string) string {
	return constants.ExportFilePrefix + today + constants.ExportFileSuffix
}

// WriteExport writes the file as indented JSON.
func (f ExportFile) WriteExport(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize export: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadImport loads an export file back into a snapshot. Files without a
// people list or an attendance map are rejected, as are day keys that are not
// dates and rosters that fail validation. Day bodies are kept as they are.
func ReadImport(path string) (storage.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("failed to read backup: %w", err)
	}

	var f ExportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := validate.Struct(f); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for date := range f.Attendance {
		if !datekey.Valid(date) {
			return storage.Snapshot{}, fmt.Errorf("%w: bad day key %q", ErrInvalidBackup, date)
		}
	}
	if err := roster.Validate(models.Roster{People: f.People, Teams: f.Teams}); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	return storage.Snapshot{
		People:     f.People,
		Teams:      f.Teams,
		Attendance: f.Attendance,
	}, nil
}
