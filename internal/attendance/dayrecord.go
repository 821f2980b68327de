package attendance

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/julianstephens/rollcall/internal/models"
)

// DayRecord is a stored day in one of its two historical shapes. Use
// DecodeDayRecord at the storage boundary and work with the variants from
// there on.
type DayRecord interface {
	// Entries returns the canonical per-person entries.
	Entries() map[string]models.AttendanceEntry
	// Names returns display names carried by the record, if any.
	Names() map[string]string
	// Date returns the date stored inside the record, or "" for shapes that
	// only know their date from the storage key.
	Date() string

	isDayRecord()
}

// LegacyDayRecord is the original flat shape: person id -> raw entry.
type LegacyDayRecord struct {
	People map[string]any
}

func (r LegacyDayRecord) Entries() map[string]models.AttendanceEntry {
	return NormalizeEntries(r.People)
}

func (r LegacyDayRecord) Names() map[string]string { return map[string]string{} }

func (r LegacyDayRecord) Date() string { return "" }

func (LegacyDayRecord) isDayRecord() {}

// WrapperDayRecord is the current shape written by BuildPayload.
type WrapperDayRecord struct {
	DateKey     string
	UpdatedAt   string
	PeopleOrder []string
	People      map[string]any
}

func (r WrapperDayRecord) Entries() map[string]models.AttendanceEntry {
	return NormalizeEntries(r.People)
}

func (r WrapperDayRecord) Names() map[string]string {
	names := make(map[string]string)
	for id, raw := range r.People {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			names[id] = name
		}
	}
	return names
}

func (r WrapperDayRecord) Date() string { return r.DateKey }

func (WrapperDayRecord) isDayRecord() {}

// DecodeDayRecord resolves a stored value into its variant. It returns nil
// when the value is absent or not an object.
func DecodeDayRecord(stored any) DayRecord {
	obj, ok := stored.(map[string]any)
	if !ok || obj == nil {
		return nil
	}

	people, ok := obj["people"].(map[string]any)
	if !ok {
		return LegacyDayRecord{People: obj}
	}

	rec := WrapperDayRecord{People: people}
	rec.DateKey, _ = obj["date"].(string)
	rec.UpdatedAt, _ = obj["updatedAt"].(string)
	if order, ok := obj["peopleOrder"].([]any); ok {
		for _, id := range order {
			if s, ok := id.(string); ok {
				rec.PeopleOrder = append(rec.PeopleOrder, s)
			}
		}
	}
	return rec
}

// DecodeDayRecordJSON decodes raw JSON bytes and resolves the variant.
// Malformed JSON is treated like an absent record.
func DecodeDayRecordJSON(data []byte) DayRecord {
	if len(data) == 0 {
		return nil
	}
	var stored any
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	return DecodeDayRecord(stored)
}

// ExtractDayEntries returns the canonical entries stored for date. The date
// is informational; the stored value is already the one for that key.
func ExtractDayEntries(stored any, date string) map[string]models.AttendanceEntry {
	rec := DecodeDayRecord(stored)
	if rec == nil {
		return map[string]models.AttendanceEntry{}
	}
	return rec.Entries()
}

// RecordFromPayload wraps a freshly built payload without a JSON round trip.
func RecordFromPayload(p models.DayPayload) WrapperDayRecord {
	people := make(map[string]any, len(p.People))
	for id, rec := range p.People {
		people[id] = map[string]any{
			"name":   rec.Name,
			"status": string(rec.Status),
			"note":   rec.Note,
			"am":     string(rec.AM),
			"pm":     string(rec.PM),
		}
	}
	return WrapperDayRecord{
		DateKey:     p.Date,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
		PeopleOrder: append([]string(nil), p.PeopleOrder...),
		People:      people,
	}
}

// MigrateLegacy returns stored in the wrapper shape with its date set.
// Legacy records keep their object entries, ordered by id; wrapper records
// are copied with the date filled in.
func MigrateLegacy(stored map[string]any, date string) map[string]any {
	switch rec := DecodeDayRecord(stored).(type) {
	case WrapperDayRecord:
		out := make(map[string]any, len(stored)+1)
		for k, v := range stored {
			out[k] = v
		}
		out["date"] = date
		return out
	case LegacyDayRecord:
		people := make(map[string]any, len(rec.People))
		order := make([]any, 0, len(rec.People))
		for _, id := range sortedKeys(rec.People) {
			if obj, ok := rec.People[id].(map[string]any); ok && obj != nil {
				people[id] = obj
				order = append(order, id)
			}
		}
		return map[string]any{"date": date, "peopleOrder": order, "people": people}
	}
	return map[string]any{"date": date, "peopleOrder": []any{}, "people": map[string]any{}}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
