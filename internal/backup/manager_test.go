package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/storage"
)

func setupTestStore(t *testing.T, people ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "rollcall.db")
	writePeople(t, dbPath, people...)
	return dbPath
}

func writePeople(t *testing.T, dbPath string, names ...string) {
	t.Helper()
	kv := storage.NewSQLiteStore(dbPath)
	if err := kv.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer kv.Close()

	people := make([]models.Person, len(names))
	for i, n := range names {
		people[i] = models.Person{ID: n, Name: n}
	}
	if err := storage.NewCache(kv).SaveRoster(people, nil); err != nil {
		t.Fatalf("SaveRoster() failed: %v", err)
	}
}

func readPeople(t *testing.T, dbPath string) []models.Person {
	t.Helper()
	kv := storage.NewSQLiteStore(dbPath)
	if err := kv.Load(); err != nil {
		t.Fatalf("Load(%s) failed: %v", dbPath, err)
	}
	defer kv.Close()

	snap, err := storage.NewCache(kv).Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	return snap.People
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestStore(t, "ada", "bo")

	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 0, 0, time.Local) }

	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if want := filepath.Join(filepath.Dir(dbPath), constants.BackupDirName, "rollcall-20261019-1504.db"); path != want {
		t.Errorf("Create() = %s, want %s", path, want)
	}

	if got := readPeople(t, path); len(got) != 2 || got[0].ID != "ada" {
		t.Errorf("backup people = %+v", got)
	}
}

func TestCreateSameMinute(t *testing.T) {
	dbPath := setupTestStore(t, "ada")

	mgr := NewManager(dbPath)
	mgr.now = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 5, 0, time.Local) }

	want := []string{
		"rollcall-20261019-1504.db",
		"rollcall-20261019-150405.db",
		"rollcall-20261019-150405-1.db",
	}
	for i, name := range want {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
		if filepath.Base(path) != name {
			t.Errorf("Create() #%d = %s, want %s", i, filepath.Base(path), name)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != len(want) {
		t.Errorf("List() returned %d backups, want %d", len(backups), len(want))
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); err == nil {
		t.Fatal("Create() succeeded for a missing database")
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestStore(t, "ada")

	mgr := NewManager(dbPath)
	mgr.now = steppingClock(time.Date(2026, 10, 1, 9, 0, 0, 0, time.Local), time.Hour)

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted newest first at %d", i)
		}
	}
	// The five oldest (09:00 to 13:00) were pruned.
	if oldest := backups[len(backups)-1].Timestamp; oldest.Hour() != 14 {
		t.Errorf("oldest remaining backup at %v, want 14:00", oldest)
	}
}

func TestListIgnoresOtherFiles(t *testing.T) {
	dbPath := setupTestStore(t, "ada")
	mgr := NewManager(dbPath)

	if got, err := mgr.List(); err != nil || len(got) != 0 {
		t.Fatalf("List() before any backup = %v, %v", got, err)
	}

	if err := os.MkdirAll(mgr.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "rollcall-latest.db", "other-20260101-1200.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("List() returned %d backups, want 1", len(backups))
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestStore(t, "ada", "bo")

	mgr := NewManager(dbPath)
	mgr.now = steppingClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local), time.Minute)

	saved, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	writePeople(t, dbPath, "cy")
	if got := readPeople(t, dbPath); len(got) != 1 {
		t.Fatalf("people before restore = %+v", got)
	}

	previous, err := mgr.Restore(saved)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if previous == "" {
		t.Fatal("Restore() did not report the pre-restore backup")
	}

	if got := readPeople(t, dbPath); len(got) != 2 || got[1].ID != "bo" {
		t.Errorf("people after restore = %+v", got)
	}
	if got := readPeople(t, previous); len(got) != 1 || got[0].ID != "cy" {
		t.Errorf("pre-restore backup people = %+v", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file was left behind")
	}
}

func TestRestoreRejectsBadFiles(t *testing.T) {
	dbPath := setupTestStore(t, "ada")
	mgr := NewManager(dbPath)

	garbage := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(garbage, []byte("not a database at all, just text"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.db")},
		{"garbage", garbage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.Restore(tt.path); err == nil {
				t.Error("Restore() succeeded")
			}
		})
	}

	if got := readPeople(t, dbPath); len(got) != 1 || got[0].ID != "ada" {
		t.Errorf("store changed after failed restore: %+v", got)
	}
}
