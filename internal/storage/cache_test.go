package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/models"
)

func newCache(t *testing.T) (*Cache, KV) {
	t.Helper()
	kv := NewJSONStore(filepath.Join(t.TempDir(), "rollcall.json"))
	if err := kv.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return NewCache(kv), kv
}

func TestCacheEmptySnapshot(t *testing.T) {
	cache, _ := newCache(t)
	s, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(s.People) != 0 || s.Attendance == nil || len(s.Attendance) != 0 {
		t.Errorf("Snapshot() = %+v", s)
	}
}

func TestCacheCorruptBlob(t *testing.T) {
	cache, kv := newCache(t)
	if err := kv.Set(constants.LocalSnapshotKey, []byte(`"just a string"`)); err != nil {
		t.Fatal(err)
	}
	s, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if s.Attendance == nil || len(s.Attendance) != 0 {
		t.Errorf("corrupt blob should give an empty snapshot, got %+v", s)
	}
}

func TestCacheSaveDayAndRange(t *testing.T) {
	cache, _ := newCache(t)
	people := []models.Person{{ID: "ada", Name: "Ada"}}
	if err := cache.SaveRoster(people, nil); err != nil {
		t.Fatal(err)
	}

	for _, date := range []string{"2026-10-19", "2026-10-01", "2026-09-30"} {
		p := models.DayPayload{
			Date:        date,
			UpdatedAt:   time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			PeopleOrder: []string{"ada"},
			People: map[string]models.PersonRecord{
				"ada": {Name: "Ada", AttendanceEntry: models.AttendanceEntry{Status: models.StatusHere}},
			},
		}
		if err := cache.SaveDay(p); err != nil {
			t.Fatalf("SaveDay(%s) failed: %v", date, err)
		}
	}
	if err := cache.SaveDayRaw("2026-10-05", json.RawMessage(`{"ada":{"status":"not"}}`)); err != nil {
		t.Fatal(err)
	}

	days, err := cache.Days("2026-10-01", "2026-10-31")
	if err != nil {
		t.Fatal(err)
	}
	var dates []string
	for _, d := range days {
		dates = append(dates, d.Date)
	}
	want := []string{"2026-10-01", "2026-10-05", "2026-10-19"}
	if len(dates) != len(want) {
		t.Fatalf("Days() = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("Days() = %v, want %v", dates, want)
		}
	}

	raw, ok, err := cache.Day("2026-10-19")
	if err != nil || !ok {
		t.Fatalf("Day() ok %v err %v", ok, err)
	}
	var decoded models.DayPayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.People["ada"].Status != models.StatusHere {
		t.Errorf("stored day = %+v", decoded)
	}

	s, _ := cache.Snapshot()
	if len(s.People) != 1 || s.People[0].ID != "ada" {
		t.Errorf("roster lost after SaveDay: %+v", s.People)
	}
}

func TestCacheSaveDayRawRejectsInvalid(t *testing.T) {
	cache, _ := newCache(t)
	if err := cache.SaveDayRaw("2026-10-19", json.RawMessage("{")); err == nil {
		t.Error("SaveDayRaw() should reject invalid JSON")
	}
}
