package days

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/docstore/memory"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/storage"
	"github.com/julianstephens/rollcall/internal/tracker"
)

var fixedNow = time.Date(2026, 10, 19, 15, 4, 0, 0, time.UTC)

// lockedBuffer lets a command goroutine write while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setupTestContext(t *testing.T, remote docstore.Store) (*cli.Context, *lockedBuffer) {
	t.Helper()
	kv := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := kv.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	out := &lockedBuffer{}
	ctx := &cli.Context{Ctx: context.Background(), Out: out, In: strings.NewReader("")}
	ctx.Config.Timezone = "UTC"
	if err := ctx.OpenWith(kv, remote); err != nil {
		t.Fatalf("failed to open context: %v", err)
	}
	ctx.Service.SetClock(func() time.Time { return fixedNow })
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})

	people := []models.Person{{ID: "ada", Name: "Ada"}, {ID: "bo", Name: "Bo"}}
	teams := []models.Team{{Name: "Blue", Members: []string{"ada"}}}
	if _, err := ctx.Service.SaveRoster(ctx.Ctx, people, teams); err != nil {
		t.Fatalf("failed to save roster: %v", err)
	}
	return ctx, out
}

func loadEntries(t *testing.T, ctx *cli.Context, date string) map[string]models.AttendanceEntry {
	t.Helper()
	day, err := ctx.Service.LoadDay(ctx.Ctx, date)
	if err != nil {
		t.Fatalf("LoadDay(%s) failed: %v", date, err)
	}
	return day.Entries
}

func TestMarkAndClear(t *testing.T) {
	ctx, out := setupTestContext(t, nil)

	if err := (&MarkCmd{Person: "ada", Status: "here", Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("mark ada failed: %v", err)
	}
	note := "late bus"
	if err := (&MarkCmd{Person: "Bo", Status: "tardy", Date: "2026-10-19", Note: &note, AM: "here", PM: "not"}).Run(ctx); err != nil {
		t.Fatalf("mark bo failed: %v", err)
	}

	entries := loadEntries(t, ctx, "2026-10-19")
	if got := entries["ada"]; got.Status != models.StatusHere {
		t.Errorf("ada = %+v, want here", got)
	}
	want := models.AttendanceEntry{Status: models.StatusTardy, Note: "late bus", AM: models.SessionHere, PM: models.SessionNot}
	if got := entries["bo"]; got != want {
		t.Errorf("bo = %+v, want %+v", got, want)
	}
	if !strings.Contains(out.String(), "tardy (AM here, PM not) - late bus") {
		t.Errorf("output = %q", out.String())
	}

	if err := (&ClearCmd{Person: "ada", Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	entries = loadEntries(t, ctx, "2026-10-19")
	if !entries["ada"].IsZero() {
		t.Errorf("ada after clear = %+v", entries["ada"])
	}
	if entries["bo"] != want {
		t.Errorf("clear touched bo: %+v", entries["bo"])
	}
}

func TestMarkKeepsSessionsUnlessGiven(t *testing.T) {
	ctx, _ := setupTestContext(t, nil)

	if err := (&MarkCmd{Person: "ada", Status: "here", Date: "yesterday", AM: "not"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&MarkCmd{Person: "ada", Status: "tardy", Date: "yesterday"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	got := loadEntries(t, ctx, "2026-10-18")["ada"]
	if got.Status != models.StatusTardy || got.AM != models.SessionNot {
		t.Errorf("ada = %+v", got)
	}

	if err := (&MarkCmd{Person: "ada", Status: "tardy", Date: "yesterday", AM: "none"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := loadEntries(t, ctx, "2026-10-18")["ada"]; got.AM != models.SessionNone {
		t.Errorf("AM after none = %q", got.AM)
	}
}

func TestMarkErrors(t *testing.T) {
	ctx, _ := setupTestContext(t, nil)

	tests := []struct {
		name string
		cmd  MarkCmd
	}{
		{"bad session", MarkCmd{Person: "ada", Status: "here", Date: "today", AM: "maybe"}},
		{"bad date", MarkCmd{Person: "ada", Status: "here", Date: "2026-02-30"}},
		{"unknown person", MarkCmd{Person: "zzz", Status: "here", Date: "today"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected an error")
			}
		})
	}

	err := (&MarkCmd{Person: "zzz", Status: "here", Date: "today"}).Run(ctx)
	if !errors.Is(err, roster.ErrPersonNotFound) {
		t.Errorf("unknown person error = %v", err)
	}
	if entries := loadEntries(t, ctx, "2026-10-19"); len(entries) != 0 {
		t.Errorf("failed marks saved entries: %+v", entries)
	}
}

func TestDayCmd(t *testing.T) {
	ctx, out := setupTestContext(t, nil)

	if err := (&DayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No attendance recorded") {
		t.Errorf("empty day output = %q", out.String())
	}

	if err := (&MarkCmd{Person: "ada", Status: "here", Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.buf.Reset()
	if err := (&DayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"Attendance for 2026-10-19 (local)", "Ada", "Bo", "1/1 here"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	out.buf.Reset()
	if err := (&DayCmd{Date: "today", JSON: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Date   string                            `json:"date"`
		Exists bool                              `json:"exists"`
		People map[string]models.AttendanceEntry `json:"people"`
	}
	if err := json.Unmarshal([]byte(out.String()), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if decoded.Date != "2026-10-19" || !decoded.Exists || decoded.People["ada"].Status != models.StatusHere {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestCalendarCmd(t *testing.T) {
	ctx, out := setupTestContext(t, nil)

	if err := (&MarkCmd{Person: "ada", Status: "here", Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.buf.Reset()
	if err := (&CalendarCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.Contains(text, "October 2026") || !strings.Contains(text, "19 1/1+") {
		t.Errorf("calendar output:\n%s", text)
	}

	if err := (&CalendarCmd{Month: "2026-13"}).Run(ctx); err == nil {
		t.Error("expected an error for month 13")
	}
}

func TestTrendsCmd(t *testing.T) {
	ctx, out := setupTestContext(t, nil)

	if err := (&MarkCmd{Person: "ada", Status: "here", Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&MarkCmd{Person: "ada", Status: "not", Date: "yesterday"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.buf.Reset()
	if err := (&TrendsCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.Contains(text, "50%") || !strings.Contains(text, "Blue") {
		t.Errorf("trends output:\n%s", text)
	}

	err := (&TrendsCmd{Team: "Red"}).Run(ctx)
	if !errors.Is(err, roster.ErrTeamNotFound) {
		t.Errorf("unknown team error = %v", err)
	}
	if err := (&TrendsCmd{Days: -1}).Run(ctx); err == nil {
		t.Error("expected an error for negative days")
	}
}

func TestWatchOffline(t *testing.T) {
	ctx, _ := setupTestContext(t, nil)
	err := (&WatchCmd{Date: "today"}).Run(ctx)
	if !errors.Is(err, tracker.ErrOffline) {
		t.Errorf("Run() error = %v, want ErrOffline", err)
	}
}

func TestWatch(t *testing.T) {
	ctx, out := setupTestContext(t, memory.New())

	runCtx, cancel := context.WithCancel(context.Background())
	ctx.Ctx = runCtx
	done := make(chan error, 1)
	go func() {
		done <- (&WatchCmd{Date: "today"}).Run(ctx)
	}()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !strings.Contains(out.String(), want) {
			if time.Now().After(deadline) {
				t.Fatalf("output never contained %q:\n%s", want, out.String())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
	waitFor("No attendance recorded")

	if _, err := ctx.Service.SaveDay(context.Background(), "2026-10-19", map[string]models.AttendanceEntry{
		"bo": {Status: models.StatusHere},
	}); err != nil {
		t.Fatal(err)
	}
	waitFor("1/1 here")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	ctx.Ctx = context.Background()
}
