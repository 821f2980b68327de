package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/storage"
)

var (
	// ErrOffline is returned by sync operations when no remote is configured.
	ErrOffline = errors.New("no remote store configured")
	// ErrSavedLocally wraps a remote write failure after the local copy was
	// saved.
	ErrSavedLocally = errors.New("saved locally only")
)

func newDay(date string, rec attendance.DayRecord, src Source) Day {
	entries := map[string]models.AttendanceEntry{}
	if rec != nil {
		entries = rec.Entries()
	}
	return Day{Date: date, Record: rec, Entries: entries, Source: src}
}

// toDocument converts a typed value to its JSON object form.
func toDocument(v any) (docstore.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}
	return doc, nil
}

func fromDocument(doc docstore.Document, v any) error {
	body := docstore.Clone(doc)
	delete(body, docstore.IDField)
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// decodeDocument strips the store's id field and resolves the day variant.
func decodeDocument(doc docstore.Document) attendance.DayRecord {
	if doc == nil {
		return nil
	}
	body := docstore.Clone(doc)
	delete(body, docstore.IDField)
	return attendance.DecodeDayRecord(map[string]any(body))
}

func sortedRecords(days map[string]attendance.DayRecord) []attendance.DayRecord {
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]attendance.DayRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, days[d])
	}
	return out
}

func sortedBlobs(m map[string]json.RawMessage) []storage.DayBlob {
	out := make([]storage.DayBlob, 0, len(m))
	for date, data := range m {
		out = append(out, storage.DayBlob{Date: date, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func membersOf(people []models.Person, ids []string) []models.Person {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Person
	for _, p := range people {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// restrict keeps only the given ids in each record.
func restrict(records []attendance.DayRecord, ids []string) []attendance.DayRecord {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]attendance.DayRecord, 0, len(records))
	for _, rec := range records {
		people := make(map[string]any)
		names := rec.Names()
		for id, e := range rec.Entries() {
			if !want[id] {
				continue
			}
			people[id] = map[string]any{
				"name":   names[id],
				"status": string(e.Status),
				"note":   e.Note,
				"am":     string(e.AM),
				"pm":     string(e.PM),
			}
		}
		out = append(out, attendance.WrapperDayRecord{DateKey: rec.Date(), People: people})
	}
	return out
}
