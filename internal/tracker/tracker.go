// Package tracker ties the attendance core to storage: an optional remote
// document store for shared, live data and the local cache that is always
// written as an offline copy.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/storage"
)

// Source says where a day was read from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Day is one loaded day.
type Day struct {
	Date    string                            `json:"date"`
	Record  attendance.DayRecord              `json:"-"`
	Entries map[string]models.AttendanceEntry `json:"people"`
	Source  Source                            `json:"source"`
}

// Exists reports whether anything was stored for the day.
func (d Day) Exists() bool {
	return d.Record != nil
}

// Service holds no attendance state; every call reads through to storage.
type Service struct {
	remote   docstore.Store
	cache    *storage.Cache
	settings models.Settings
	calendar datekey.Calendar
	now      func() time.Time
}

// New builds a service. remote may be nil for offline use.
func New(remote docstore.Store, cache *storage.Cache, settings models.Settings) (*Service, error) {
	settings = settings.WithDefaults()
	cal, err := datekey.NewCalendar(settings.Timezone)
	if err != nil {
		return nil, err
	}
	return &Service{
		remote:   remote,
		cache:    cache,
		settings: settings,
		calendar: cal,
		now:      time.Now,
	}, nil
}

// SetClock replaces the clock used for today and payload timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.calendar.Now = now
}

// Online reports whether a remote store is configured.
func (s *Service) Online() bool {
	return s.remote != nil
}

func (s *Service) Settings() models.Settings {
	return s.settings
}

func (s *Service) Calendar() datekey.Calendar {
	return s.calendar
}

// Today returns today's key in the configured timezone.
func (s *Service) Today() string {
	return s.calendar.Today()
}

// LoadRoster reads the people and teams, from the remote config document
// when online and from the local snapshot otherwise or on remote failure.
func (s *Service) LoadRoster(ctx context.Context) (models.Roster, error) {
	if s.remote != nil {
		doc, err := s.remote.Get(ctx, constants.CollectionConfig, constants.ConfigPeopleID)
		switch {
		case err == nil:
			var r models.Roster
			if err := fromDocument(doc, &r); err != nil {
				logger.Warn("Ignoring unreadable remote roster", "error", err)
				break
			}
			if err := s.cache.SaveRoster(r.People, r.Teams); err != nil {
				logger.Warn("Failed to cache roster locally", "error", err)
			}
			return r, nil
		case errors.Is(err, docstore.ErrNotFound):
			logger.Debug("No remote roster, using local snapshot")
		default:
			logger.Warn("Failed to load remote roster, using local snapshot", "error", err)
		}
	}

	snap, err := s.cache.Snapshot()
	if err != nil {
		return models.Roster{}, fmt.Errorf("failed to load roster: %w", err)
	}
	return models.Roster{People: snap.People, Teams: snap.Teams}, nil
}

// SaveRoster validates and stores the people and teams remotely (merged,
// when online) and locally.
func (s *Service) SaveRoster(ctx context.Context, people []models.Person, teams []models.Team) (models.Roster, error) {
	r := models.Roster{UpdatedAt: s.now().UTC(), People: people, Teams: teams}
	if r.People == nil {
		r.People = []models.Person{}
	}
	if r.Teams == nil {
		r.Teams = []models.Team{}
	}
	if err := roster.Validate(r); err != nil {
		return r, err
	}

	var remoteErr error
	if s.remote != nil {
		doc, err := toDocument(r)
		if err == nil {
			err = s.remote.Put(ctx, constants.CollectionConfig, constants.ConfigPeopleID, doc, true)
		}
		if err != nil {
			remoteErr = fmt.Errorf("%w: failed to save roster remotely: %w", ErrSavedLocally, err)
		}
	}
	if err := s.cache.SaveRoster(r.People, r.Teams); err != nil {
		return r, fmt.Errorf("failed to save roster locally: %w", err)
	}
	return r, remoteErr
}

// LoadDay reads one day. A day with nothing stored has no record and no
// entries.
func (s *Service) LoadDay(ctx context.Context, date string) (Day, error) {
	if !datekey.Valid(date) {
		return Day{}, fmt.Errorf("%w: %q", datekey.ErrInvalidKey, date)
	}

	if s.remote != nil {
		doc, err := s.remote.Get(ctx, constants.CollectionAttendance, date)
		switch {
		case err == nil:
			return newDay(date, decodeDocument(doc), SourceRemote), nil
		case errors.Is(err, docstore.ErrNotFound):
			return newDay(date, nil, SourceRemote), nil
		default:
			logger.Warn("Failed to load remote day, using local snapshot", "date", date, "error", err)
		}
	}

	raw, ok, err := s.cache.Day(date)
	if err != nil {
		return Day{}, fmt.Errorf("failed to load %s: %w", date, err)
	}
	var rec attendance.DayRecord
	if ok {
		rec = attendance.DecodeDayRecordJSON(raw)
	}
	return newDay(date, rec, SourceLocal), nil
}

// SaveDay writes the day for the current roster: merged into the remote
// document when online, then always into the local snapshot. A remote
// failure is reported after the local copy is saved.
func (s *Service) SaveDay(ctx context.Context, date string, entries map[string]models.AttendanceEntry) (models.DayPayload, error) {
	if !datekey.Valid(date) {
		return models.DayPayload{}, fmt.Errorf("%w: %q", datekey.ErrInvalidKey, date)
	}
	r, err := s.LoadRoster(ctx)
	if err != nil {
		return models.DayPayload{}, err
	}
	payload := attendance.BuildPayload(date, r.People, entries, s.now(), s.settings.ClientID)

	var remoteErr error
	if s.remote != nil {
		doc, err := toDocument(payload)
		if err == nil {
			err = s.remote.Put(ctx, constants.CollectionAttendance, date, doc, true)
		}
		if err != nil {
			remoteErr = fmt.Errorf("%w: failed to save %s remotely: %w", ErrSavedLocally, date, err)
		}
	}
	if err := s.cache.SaveDay(payload); err != nil {
		return payload, fmt.Errorf("failed to save %s locally: %w", date, err)
	}
	logger.Info("Saved attendance", "date", date, "people", len(payload.PeopleOrder), "remote", s.remote != nil && remoteErr == nil)
	return payload, remoteErr
}

// LoadRange returns every stored day with start <= date <= end, keyed by
// date. Remote days are found by their date field, so legacy remote
// documents without one are not included.
func (s *Service) LoadRange(ctx context.Context, start, end string) (map[string]attendance.DayRecord, error) {
	if !datekey.Valid(start) || !datekey.Valid(end) {
		return nil, fmt.Errorf("%w: %q..%q", datekey.ErrInvalidKey, start, end)
	}

	if s.remote != nil {
		docs, err := s.remote.QueryRange(ctx, constants.CollectionAttendance, constants.FieldDate, start, end)
		if err == nil {
			days := make(map[string]attendance.DayRecord, len(docs))
			for _, doc := range docs {
				id, _ := doc[docstore.IDField].(string)
				if rec := decodeDocument(doc); rec != nil && id != "" {
					days[id] = rec
				}
			}
			return days, nil
		}
		logger.Warn("Failed to query remote days, using local snapshot", "start", start, "end", end, "error", err)
	}

	blobs, err := s.cache.Days(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load days: %w", err)
	}
	days := make(map[string]attendance.DayRecord, len(blobs))
	for _, b := range blobs {
		if rec := attendance.DecodeDayRecordJSON(b.Data); rec != nil {
			days[b.Date] = rec
		}
	}
	return days, nil
}

func (s *Service) thresholds() attendance.Thresholds {
	return attendance.Thresholds{Busy: s.settings.BusyThreshold, Slow: s.settings.SlowThreshold}
}

// Month builds the calendar grid for a month.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (attendance.Month, error) {
	if month < time.January || month > time.December {
		return attendance.Month{}, fmt.Errorf("invalid month %d", month)
	}
	start, end := datekey.MonthRange(year, month)
	days, err := s.LoadRange(ctx, start, end)
	if err != nil {
		return attendance.Month{}, err
	}
	return attendance.BuildMonth(year, month, days, s.thresholds()), nil
}

// TrendReport is the trends view over a window ending today.
type TrendReport struct {
	Start  string                   `json:"start"`
	End    string                   `json:"end"`
	People []attendance.PersonTrend `json:"people"`
	Teams  []attendance.TeamTrend   `json:"teams"`
}

// Trends summarizes the window from today minus days through today. A
// non-positive days uses the configured trend window; a non-empty team
// limits the people to that team's members.
func (s *Service) Trends(ctx context.Context, days int, team string) (TrendReport, error) {
	if days <= 0 {
		days = s.settings.TrendDays
	}
	end := s.Today()
	start := s.calendar.AddDays(end, -days)

	r, err := s.LoadRoster(ctx)
	if err != nil {
		return TrendReport{}, err
	}
	byDate, err := s.LoadRange(ctx, start, end)
	if err != nil {
		return TrendReport{}, err
	}
	records := sortedRecords(byDate)

	people := r.People
	teams := r.Teams
	if team != "" {
		t, ok := roster.TeamByName(r.Teams, team)
		if !ok {
			return TrendReport{}, fmt.Errorf("%w: %q", roster.ErrTeamNotFound, team)
		}
		people = membersOf(r.People, t.Members)
		records = restrict(records, t.Members)
		teams = []models.Team{t}
	}

	trends := attendance.BuildTrends(records, people)
	return TrendReport{
		Start:  start,
		End:    end,
		People: trends,
		Teams:  attendance.BuildTeamTrends(trends, teams),
	}, nil
}

// WatchDay calls fn with the day now and after each remote change. Offline
// it delivers nothing and returns a no-op subscription.
func (s *Service) WatchDay(ctx context.Context, date string, fn func(Day)) (docstore.Subscription, error) {
	if !datekey.Valid(date) {
		return nil, fmt.Errorf("%w: %q", datekey.ErrInvalidKey, date)
	}
	if s.remote == nil {
		return docstore.SubscriptionFunc(func() error { return nil }), nil
	}
	return s.remote.Subscribe(ctx, constants.CollectionAttendance, date, func(doc docstore.Document) {
		fn(newDay(date, decodeDocument(doc), SourceRemote))
	})
}

// Push copies the local roster and every local day to the remote store.
// It returns the number of days written.
func (s *Service) Push(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrOffline
	}
	snap, err := s.cache.Snapshot()
	if err != nil {
		return 0, err
	}

	if len(snap.People) > 0 {
		r := models.Roster{UpdatedAt: s.now().UTC(), People: snap.People, Teams: snap.Teams}
		doc, err := toDocument(r)
		if err != nil {
			return 0, err
		}
		if err := s.remote.Put(ctx, constants.CollectionConfig, constants.ConfigPeopleID, doc, true); err != nil {
			return 0, fmt.Errorf("failed to push roster: %w", err)
		}
	}

	pushed := 0
	for _, b := range sortedBlobs(snap.Attendance) {
		var doc docstore.Document
		if err := json.Unmarshal(b.Data, &doc); err != nil || doc == nil {
			logger.Warn("Skipping unreadable local day", "date", b.Date)
			continue
		}
		if _, ok := doc[constants.FieldDate]; !ok {
			// Legacy days get a date field so range queries can find them.
			doc = attendance.MigrateLegacy(doc, b.Date)
		}
		if err := s.remote.Put(ctx, constants.CollectionAttendance, b.Date, doc, true); err != nil {
			return pushed, fmt.Errorf("failed to push %s: %w", b.Date, err)
		}
		pushed++
	}
	logger.Info("Pushed local data", "days", pushed)
	return pushed, nil
}

// Pull copies the remote roster and the remote days in [start, end] into
// the local snapshot. It returns the number of days written.
func (s *Service) Pull(ctx context.Context, start, end string) (int, error) {
	if s.remote == nil {
		return 0, ErrOffline
	}
	if !datekey.Valid(start) || !datekey.Valid(end) {
		return 0, fmt.Errorf("%w: %q..%q", datekey.ErrInvalidKey, start, end)
	}

	if _, err := s.LoadRoster(ctx); err != nil {
		return 0, err
	}

	docs, err := s.remote.QueryRange(ctx, constants.CollectionAttendance, constants.FieldDate, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to query remote days: %w", err)
	}
	pulled := 0
	for _, doc := range docs {
		id, _ := doc[docstore.IDField].(string)
		if !datekey.Valid(id) {
			continue
		}
		body := docstore.Clone(doc)
		delete(body, docstore.IDField)
		data, err := json.Marshal(body)
		if err != nil {
			return pulled, fmt.Errorf("failed to serialize %s: %w", id, err)
		}
		if err := s.cache.SaveDayRaw(id, data); err != nil {
			return pulled, err
		}
		pulled++
	}
	logger.Info("Pulled remote data", "days", pulled)
	return pulled, nil
}

// Snapshot returns the local offline copy.
func (s *Service) Snapshot() (storage.Snapshot, error) {
	return s.cache.Snapshot()
}

// Restore replaces the local snapshot, e.g. from an imported backup.
func (s *Service) Restore(snap storage.Snapshot) error {
	return s.cache.Save(snap)
}
