package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/docstore/memory"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/storage"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T, remote docstore.Store) (*Service, *storage.Cache) {
	t.Helper()
	kv := storage.NewJSONStore(filepath.Join(t.TempDir(), "rollcall.json"))
	if err := kv.Init(); err != nil {
		t.Fatal(err)
	}
	cache := storage.NewCache(kv)
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	settings.ClientID = "test-client"

	svc, err := New(remote, cache, settings)
	if err != nil {
		t.Fatal(err)
	}
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, cache
}

var people = []models.Person{{ID: "ada", Name: "Ada"}, {ID: "bo", Name: "Bo"}}

func TestOfflineSaveAndLoadDay(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	if _, err := svc.SaveRoster(ctx, people, nil); err != nil {
		t.Fatal(err)
	}
	payload, err := svc.SaveDay(ctx, "2026-10-19", map[string]models.AttendanceEntry{
		"ada":   {Status: models.StatusHere},
		"ghost": {Status: models.StatusNot},
	})
	if err != nil {
		t.Fatalf("SaveDay() failed: %v", err)
	}
	if payload.UpdatedBy != "test-client" || !payload.UpdatedAt.Equal(fixedNow) {
		t.Errorf("payload header = %+v", payload)
	}

	day, err := svc.LoadDay(ctx, "2026-10-19")
	if err != nil {
		t.Fatal(err)
	}
	if day.Source != SourceLocal || !day.Exists() {
		t.Errorf("day = %+v", day)
	}
	if day.Entries["ada"].Status != models.StatusHere {
		t.Errorf("ada = %+v", day.Entries["ada"])
	}
	if _, ok := day.Entries["ghost"]; ok {
		t.Error("ids outside the roster should not be saved")
	}
	if _, ok := day.Entries["bo"]; !ok {
		t.Error("every roster person should be written")
	}

	empty, err := svc.LoadDay(ctx, "2026-10-18")
	if err != nil || empty.Exists() || len(empty.Entries) != 0 {
		t.Errorf("empty day = %+v, %v", empty, err)
	}
}

func TestLoadDayInvalidKey(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.LoadDay(context.Background(), "2026-02-30"); !errors.Is(err, datekey.ErrInvalidKey) {
		t.Errorf("LoadDay() error = %v, want ErrInvalidKey", err)
	}
}

func TestOnlineSaveWritesBoth(t *testing.T) {
	ctx := context.Background()
	remote := memory.New()
	svc, cache := newService(t, remote)

	if _, err := svc.SaveRoster(ctx, people, []models.Team{{Name: "Blue", Members: []string{"ada"}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveDay(ctx, "2026-10-19", map[string]models.AttendanceEntry{"bo": {Status: models.StatusTardy}}); err != nil {
		t.Fatal(err)
	}

	doc, err := remote.Get(ctx, constants.CollectionAttendance, "2026-10-19")
	if err != nil {
		t.Fatalf("remote doc missing: %v", err)
	}
	if doc["date"] != "2026-10-19" || doc["updatedBy"] != "test-client" {
		t.Errorf("remote doc = %v", doc)
	}

	if _, ok, _ := cache.Day("2026-10-19"); !ok {
		t.Error("local backup missing")
	}

	day, err := svc.LoadDay(ctx, "2026-10-19")
	if err != nil || day.Source != SourceRemote || day.Entries["bo"].Status != models.StatusTardy {
		t.Errorf("LoadDay() = %+v, %v", day, err)
	}

	r, err := svc.LoadRoster(ctx)
	if err != nil || len(r.People) != 2 || len(r.Teams) != 1 {
		t.Errorf("LoadRoster() = %+v, %v", r, err)
	}
}

func TestSaveRosterRejectsUnknownTeamMember(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.SaveRoster(context.Background(), people, []models.Team{{Name: "Red", Members: []string{"zed"}}})
	if err == nil {
		t.Error("SaveRoster() should reject unknown members")
	}
}

func TestLegacyRemoteDay(t *testing.T) {
	ctx := context.Background()
	remote := memory.New()
	_ = remote.Put(ctx, constants.CollectionAttendance, "2026-02-09", docstore.Document{
		"ada": map[string]any{"status": "here", "am": "not"},
	}, false)
	svc, _ := newService(t, remote)

	day, err := svc.LoadDay(ctx, "2026-02-09")
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Entries) != 1 || day.Entries["ada"].AM != models.SessionNot {
		t.Errorf("entries = %+v", day.Entries)
	}
}

func TestMonthAndTrends(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, memory.New())
	if _, err := svc.SaveRoster(ctx, people, []models.Team{{Name: "Blue", Members: []string{"ada"}}}); err != nil {
		t.Fatal(err)
	}

	days := map[string]map[string]models.AttendanceEntry{
		"2026-10-01": {"ada": {Status: models.StatusHere}, "bo": {Status: models.StatusHere}},
		"2026-10-02": {"ada": {Status: models.StatusNot}, "bo": {Status: models.StatusHere, Note: "late"}},
		"2026-10-19": {"ada": {Status: models.StatusHere}},
	}
	for date, entries := range days {
		if _, err := svc.SaveDay(ctx, date, entries); err != nil {
			t.Fatal(err)
		}
	}

	m, err := svc.Month(ctx, 2026, time.October)
	if err != nil {
		t.Fatal(err)
	}
	recorded := 0
	for _, c := range m.Cells {
		if c.HasRecord {
			recorded++
		}
		if c.Key == "2026-10-02" && c.Label() != "1/2 here" {
			t.Errorf("2026-10-02 label = %q", c.Label())
		}
	}
	if recorded != 3 {
		t.Errorf("recorded cells = %d, want 3", recorded)
	}

	report, err := svc.Trends(ctx, 90, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.End != "2026-10-19" || report.Start != "2026-07-21" {
		t.Errorf("window = %s..%s", report.Start, report.End)
	}
	if len(report.People) != 2 || report.People[0].ID != "ada" {
		t.Fatalf("people = %+v", report.People)
	}
	if report.People[1].Late != 1 {
		t.Errorf("bo late = %d", report.People[1].Late)
	}
	if len(report.Teams) != 1 || report.Teams[0].Summary.Total != 3 {
		t.Errorf("teams = %+v", report.Teams)
	}

	blue, err := svc.Trends(ctx, 90, "blue")
	if err != nil {
		t.Fatal(err)
	}
	if len(blue.People) != 1 || blue.People[0].ID != "ada" {
		t.Errorf("team trends = %+v", blue.People)
	}
	if _, err := svc.Trends(ctx, 90, "nope"); !errors.Is(err, roster.ErrTeamNotFound) {
		t.Error("unknown team should be an error")
	}
}

func TestWatchDay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	offline, _ := newService(t, nil)
	sub, err := offline.WatchDay(ctx, "2026-10-19", func(Day) { t.Error("offline watch delivered") })
	if err != nil {
		t.Fatal(err)
	}
	_ = sub.Close()

	remote := memory.New()
	svc, _ := newService(t, remote)
	var got []Day
	sub, err = svc.WatchDay(ctx, "2026-10-19", func(d Day) { got = append(got, d) })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	_ = remote.Put(ctx, constants.CollectionAttendance, "2026-10-19", docstore.Document{
		"date":   "2026-10-19",
		"people": map[string]any{"ada": map[string]any{"status": "here"}},
	}, true)

	if len(got) != 2 || got[0].Exists() || got[1].Entries["ada"].Status != models.StatusHere {
		t.Errorf("watch deliveries = %+v", got)
	}
}

func TestPushAndPull(t *testing.T) {
	ctx := context.Background()

	offline, cache := newService(t, nil)
	if _, err := offline.SaveRoster(ctx, people, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := offline.SaveDay(ctx, "2026-10-19", map[string]models.AttendanceEntry{"ada": {Status: models.StatusHere}}); err != nil {
		t.Fatal(err)
	}
	if err := cache.SaveDayRaw("2026-10-01", json.RawMessage(`{"bo":{"status":"not"}}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := offline.Push(ctx); !errors.Is(err, ErrOffline) {
		t.Errorf("offline Push() error = %v", err)
	}

	remote := memory.New()
	online, err := New(remote, cache, offline.Settings())
	if err != nil {
		t.Fatal(err)
	}
	n, err := online.Push(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Push() = %d, %v", n, err)
	}

	legacy, err := remote.Get(ctx, constants.CollectionAttendance, "2026-10-01")
	if err != nil || legacy["date"] != "2026-10-01" {
		t.Errorf("pushed legacy day = %v, %v", legacy, err)
	}

	fresh, freshCache := newService(t, remote)
	n, err = fresh.Pull(ctx, "2026-10-01", "2026-10-31")
	if err != nil || n != 2 {
		t.Fatalf("Pull() = %d, %v", n, err)
	}
	snap, _ := freshCache.Snapshot()
	if len(snap.People) != 2 || len(snap.Attendance) != 2 {
		t.Errorf("pulled snapshot = %d people, %d days", len(snap.People), len(snap.Attendance))
	}
	var stored map[string]any
	_ = json.Unmarshal(snap.Attendance["2026-10-19"], &stored)
	if _, ok := stored[docstore.IDField]; ok {
		t.Error("pulled days should not carry the store id field")
	}
}

// failingStore accepts reads but rejects every write.
type failingStore struct {
	*memory.Store
}

func (failingStore) Put(context.Context, string, string, docstore.Document, bool) error {
	return errors.New("remote is read-only")
}

func TestRemoteFailureStillSavesLocally(t *testing.T) {
	ctx := context.Background()
	svc, cache := newService(t, failingStore{memory.New()})

	if _, err := svc.SaveRoster(ctx, people, nil); !errors.Is(err, ErrSavedLocally) {
		t.Fatalf("SaveRoster() error = %v, want ErrSavedLocally", err)
	}
	_, err := svc.SaveDay(ctx, "2026-10-19", map[string]models.AttendanceEntry{"ada": {Status: models.StatusHere}})
	if !errors.Is(err, ErrSavedLocally) {
		t.Fatalf("SaveDay() error = %v, want ErrSavedLocally", err)
	}

	if _, ok, err := cache.Day("2026-10-19"); err != nil || !ok {
		t.Errorf("local copy missing: ok %v, err %v", ok, err)
	}
}
