// Package datekey encodes, decodes and shifts calendar dates expressed as
// YYYY-MM-DD strings. Keys carry no time or timezone; all arithmetic is done
// on UTC midnights so daylight saving transitions never shift a day.
package datekey

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/julianstephens/rollcall/internal/constants"
)

// ErrInvalidKey is returned for strings that are not a real calendar date in
// YYYY-MM-DD form.
var ErrInvalidKey = errors.New("invalid date key")

var keyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// Format returns the key for t's calendar fields as given, without converting
// t to another location first.
func Format(t time.Time) string {
	return FormatDate(t.Year(), t.Month(), t.Day())
}

// FormatDate returns the zero-padded key for year, month and day.
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// Parse decodes key into a UTC midnight. Overflowing components such as
// "2026-02-30" are rejected rather than normalized into the next month.
func Parse(key string) (time.Time, error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return t, nil
}

// Valid reports whether key parses.
func Valid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// MonthRange returns the first and last keys of the given month.
func MonthRange(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Format(first), Format(last)
}

// Range enumerates every key from start to end inclusive. An end before start
// yields an empty slice.
func Range(start, end string) ([]string, error) {
	from, err := Parse(start)
	if err != nil {
		return nil, err
	}
	to, err := Parse(end)
	if err != nil {
		return nil, err
	}

	var keys []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		keys = append(keys, Format(d))
	}
	return keys, nil
}

// Between reports whether key is a valid date within [start, end]. Valid keys
// sort lexically in date order, so no parsing of the bounds is needed.
func Between(key, start, end string) bool {
	return Valid(key) && key >= start && key <= end
}

// Calendar resolves "today" against an injectable clock and location.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

// NewCalendar returns a calendar on the system clock in the given IANA
// timezone ("" or "Local" for the system zone).
func NewCalendar(timezone string) (Calendar, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Calendar{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Calendar{Now: time.Now, Location: loc}, nil
}

// Today returns the current date key in the calendar's location.
func (c Calendar) Today() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	if c.Location != nil {
		t = t.In(c.Location)
	}
	return Format(t)
}

// AddDays shifts key by delta calendar days. An unparseable key falls back to
// Today() instead of failing.
func (c Calendar) AddDays(key string, delta int) string {
	t, err := Parse(key)
	if err != nil {
		return c.Today()
	}
	return Format(t.AddDate(0, 0, delta))
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
