package models

import (
	"encoding/json"
	"time"
)

// Status is the whole-day attendance signal for one person.
type Status string

const (
	StatusNone  Status = ""
	StatusHere  Status = "here"
	StatusTardy Status = "tardy"
	StatusNot   Status = "not"
)

// Session is the value of an AM or PM sub-session override.
type Session string

const (
	SessionNone Session = ""
	SessionHere Session = "here"
	SessionNot  Session = "not"
)

// Present reports whether the status counts toward occupancy. Tardy is
// present-but-late.
func (s Status) Present() bool {
	return s == StatusHere || s == StatusTardy
}

// Session maps the whole-day status onto a sub-session value, used when a
// split day leaves one half unset.
func (s Status) Session() Session {
	switch {
	case s.Present():
		return SessionHere
	case s == StatusNot:
		return SessionNot
	}
	return SessionNone
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = StatusNone
	if v != nil {
		*s = Status(*v)
	}
	return nil
}

// Explicit reports whether the session carries a here/not value.
func (s Session) Explicit() bool {
	return s == SessionHere || s == SessionNot
}

func (s Session) MarshalJSON() ([]byte, error) {
	if s == SessionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SessionNone
	if v != nil {
		*s = Session(*v)
	}
	return nil
}

// AttendanceEntry is one person's canonical record for one day.
type AttendanceEntry struct {
	Status Status  `json:"status" bson:"status" validate:"omitempty,oneof=here tardy not"`
	Note   string  `json:"note" bson:"note"`
	AM     Session `json:"am" bson:"am" validate:"omitempty,oneof=here not"`
	PM     Session `json:"pm" bson:"pm" validate:"omitempty,oneof=here not"`
}

// IsZero reports whether nothing has been recorded.
func (e AttendanceEntry) IsZero() bool {
	return e == AttendanceEntry{}
}

// PersonRecord is an entry as written inside a day payload, carrying the
// person's display name at save time.
type PersonRecord struct {
	Name            string `json:"name" bson:"name"`
	AttendanceEntry `bson:",inline"`
}

// DayPayload is the current stored shape of a day record.
type DayPayload struct {
	Date        string                  `json:"date" bson:"date"`
	UpdatedAt   time.Time               `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy   string                  `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	PeopleOrder []string                `json:"peopleOrder" bson:"peopleOrder"`
	People      map[string]PersonRecord `json:"people" bson:"people"`
}
