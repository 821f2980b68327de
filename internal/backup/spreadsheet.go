package backup

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/storage"
)

const (
	SheetAttendance = "Attendance"
	SheetSummary    = "Summary"
)

var summaryHeader = []string{"Name", "Here", "Not", "Total", "Tardy", "Late notes", "Percent"}

// Symbol renders an entry for a spreadsheet cell: H, T or N for a whole day,
// "AM/PM" halves such as "H/N" for a split day, and "" when unmarked.
func Symbol(e models.AttendanceEntry) string {
	if e.Status == models.StatusNone {
		return ""
	}
	if !e.AM.Explicit() && !e.PM.Explicit() {
		switch e.Status {
		case models.StatusHere:
			return "H"
		case models.StatusTardy:
			return "T"
		case models.StatusNot:
			return "N"
		}
		return ""
	}
	half := func(s models.Session) string {
		if !s.Explicit() {
			s = e.Status.Session()
		}
		switch s {
		case models.SessionHere:
			return "H"
		case models.SessionNot:
			return "N"
		}
		return "-"
	}
	return half(e.AM) + "/" + half(e.PM)
}

// WriteSpreadsheet writes the days of snap between start and end inclusive
// as an xlsx workbook: a people-by-date grid and a per-person summary.
func WriteSpreadsheet(path string, snap storage.Snapshot, start, end string) error {
	var dates []string
	var days []attendance.DayRecord
	for _, blob := range sortedDays(snap, start, end) {
		rec := attendance.DecodeDayRecordJSON(blob.Data)
		if rec == nil {
			continue
		}
		dates = append(dates, blob.Date)
		days = append(days, rec)
	}
	rows := rowOrder(snap.People, days)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAttendance); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	grid := [][]any{append([]any{"Name"}, toAny(dates)...)}
	for _, r := range rows {
		line := []any{r.Name}
		for _, day := range days {
			line = append(line, Symbol(day.Entries()[r.ID]))
		}
		grid = append(grid, line)
	}
	if err := writeSheet(f, SheetAttendance, grid, bold); err != nil {
		return err
	}

	summary := [][]any{toAny(summaryHeader)}
	for _, t := range attendance.BuildTrends(days, snap.People) {
		summary = append(summary, []any{
			t.Name, t.Summary.Here, t.Summary.Not, t.Summary.Total,
			t.Summary.Tardy, t.Late, t.Percent(),
		})
	}
	if err := writeSheet(f, SheetSummary, summary, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, header int) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

type row struct {
	ID   string
	Name string
}

// rowOrder lists roster people first, then ids that only appear in records.
func rowOrder(people []models.Person, days []attendance.DayRecord) []row {
	seen := make(map[string]bool)
	var rows []row
	for _, p := range people {
		if !seen[p.ID] {
			seen[p.ID] = true
			rows = append(rows, row{ID: p.ID, Name: p.Name})
		}
	}
	extra := make(map[string]string)
	for _, day := range days {
		names := day.Names()
		for id := range day.Entries() {
			if seen[id] {
				continue
			}
			if extra[id] == "" {
				extra[id] = names[id]
			}
		}
	}
	ids := make([]string, 0, len(extra))
	for id := range extra {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := extra[id]
		if name == "" {
			name = id
		}
		rows = append(rows, row{ID: id, Name: name})
	}
	return rows
}

func sortedDays(snap storage.Snapshot, start, end string) []storage.DayBlob {
	var out []storage.DayBlob
	for date, data := range snap.Attendance {
		if datekey.Between(date, start, end) {
			out = append(out, storage.DayBlob{Date: date, Data: data})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
