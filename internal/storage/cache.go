package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
)

// Snapshot is the offline copy of everything the app knows: the roster and
// every saved day, keyed by date. Day values are kept as raw JSON so legacy
// and current shapes survive untouched.
type Snapshot struct {
	People     []models.Person            `json:"people" validate:"required,dive"`
	Teams      []models.Team              `json:"teams,omitempty" validate:"dive"`
	Attendance map[string]json.RawMessage `json:"attendance" validate:"required"`
}

// DayBlob is one stored day as found in the snapshot.
type DayBlob struct {
	Date string
	Data json.RawMessage
}

// Cache reads and writes the Snapshot held under a single KV key.
type Cache struct {
	kv KV
	mu sync.Mutex
}

func NewCache(kv KV) *Cache {
	return &Cache{kv: kv}
}

// Snapshot returns the stored snapshot. A missing or unreadable blob yields
// an empty snapshot; only store failures are errors.
func (c *Cache) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

// Save replaces the whole snapshot.
func (c *Cache) Save(s Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(s)
}

// SaveDay stores a payload under its date, replacing whatever was there.
func (c *Cache) SaveDay(p models.DayPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize day %s: %w", p.Date, err)
	}
	return c.update(func(s *Snapshot) {
		s.Attendance[p.Date] = data
	})
}

// SaveDayRaw stores an already-encoded day document under date.
func (c *Cache) SaveDayRaw(date string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("day %s is not valid JSON", date)
	}
	return c.update(func(s *Snapshot) {
		s.Attendance[date] = append(json.RawMessage(nil), data...)
	})
}

// SaveRoster replaces the people and teams.
func (c *Cache) SaveRoster(people []models.Person, teams []models.Team) error {
	return c.update(func(s *Snapshot) {
		s.People = people
		s.Teams = teams
	})
}

// Day returns the stored day for date, if any.
func (c *Cache) Day(date string) (json.RawMessage, bool, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, false, err
	}
	data, ok := s.Attendance[date]
	return data, ok, nil
}

// Days returns the stored days with start <= date <= end, ordered by date.
// Keys compare as strings, which orders them chronologically.
func (c *Cache) Days(start, end string) ([]DayBlob, error) {
	s, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	var days []DayBlob
	for date, data := range s.Attendance {
		if date >= start && date <= end {
			days = append(days, DayBlob{Date: date, Data: data})
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func (c *Cache) update(fn func(*Snapshot)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.read()
	if err != nil {
		return err
	}
	fn(&s)
	return c.write(s)
}

func (c *Cache) read() (Snapshot, error) {
	empty := Snapshot{Attendance: make(map[string]json.RawMessage)}

	data, ok, err := c.kv.Get(constants.LocalSnapshotKey)
	if err != nil {
		return empty, err
	}
	if !ok {
		return empty, nil
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("Ignoring unreadable local snapshot", "error", err)
		return empty, nil
	}
	if s.Attendance == nil {
		s.Attendance = make(map[string]json.RawMessage)
	}
	return s, nil
}

func (c *Cache) write(s Snapshot) error {
	if s.Attendance == nil {
		s.Attendance = make(map[string]json.RawMessage)
	}
	if s.People == nil {
		s.People = []models.Person{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return c.kv.Set(constants.LocalSnapshotKey, data)
}
