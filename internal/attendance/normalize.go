package attendance

import (
	"fmt"
	"math"

	"github.com/julianstephens/rollcall/internal/models"
)

// NormalizeEntry converts one stored value into a canonical entry. Only plain
// objects are accepted; ok is false for anything else and the caller must
// drop the record. Fields other than status, note, am and pm are discarded.
func NormalizeEntry(raw any) (models.AttendanceEntry, bool) {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return models.AttendanceEntry{}, false
	}
	return models.AttendanceEntry{
		Status: models.Status(text(obj["status"])),
		Note:   text(obj["note"]),
		AM:     models.Session(text(obj["am"])),
		PM:     models.Session(text(obj["pm"])),
	}, true
}

// NormalizeEntries applies NormalizeEntry to every value in an id-keyed
// mapping, omitting ids whose value is not an object.
func NormalizeEntries(raw map[string]any) map[string]models.AttendanceEntry {
	entries := make(map[string]models.AttendanceEntry, len(raw))
	for id, value := range raw {
		if entry, ok := NormalizeEntry(value); ok {
			entries[id] = entry
		}
	}
	return entries
}

// text returns "" for falsy values (nil, false, zero, NaN, "") and the
// string form of anything else.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 || math.IsNaN(t) {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	case int32:
		if t == 0 {
			return ""
		}
	case int64:
		if t == 0 {
			return ""
		}
	}
	return fmt.Sprint(v)
}
