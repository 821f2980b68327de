package attendance

import (
	"time"

	"github.com/julianstephens/rollcall/internal/models"
)

// ToggleStatus sets status, or clears it when it is already set.
func ToggleStatus(e models.AttendanceEntry, status models.Status) models.AttendanceEntry {
	if e.Status == status {
		e.Status = models.StatusNone
	} else {
		e.Status = status
	}
	return e
}

// Clear resets everything recorded for the day.
func Clear(models.AttendanceEntry) models.AttendanceEntry {
	return models.AttendanceEntry{}
}

// CycleSession advances a sub-session through none -> here -> not -> none.
func CycleSession(s models.Session) models.Session {
	switch s {
	case models.SessionNone:
		return models.SessionHere
	case models.SessionHere:
		return models.SessionNot
	}
	return models.SessionNone
}

// SetNote replaces the entry's note.
func SetNote(e models.AttendanceEntry, note string) models.AttendanceEntry {
	e.Note = note
	return e
}

// BuildPayload produces the stored day document for the given roster. Every
// roster person is written, in roster order, with an empty entry when
// nothing was recorded; entries for ids outside the roster are not written.
func BuildPayload(date string, people []models.Person, entries map[string]models.AttendanceEntry, now time.Time, clientID string) models.DayPayload {
	p := models.DayPayload{
		Date:        date,
		UpdatedAt:   now.UTC(),
		UpdatedBy:   clientID,
		PeopleOrder: make([]string, 0, len(people)),
		People:      make(map[string]models.PersonRecord, len(people)),
	}
	for _, person := range people {
		p.PeopleOrder = append(p.PeopleOrder, person.ID)
		p.People[person.ID] = models.PersonRecord{
			Name:            person.Name,
			AttendanceEntry: entries[person.ID],
		}
	}
	return p
}
