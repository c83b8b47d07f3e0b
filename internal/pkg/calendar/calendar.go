// Package calendar handles the venue-local calendar dates used as booking slots.
// Dates are "YYYY-MM-DD" strings, which order correctly when compared as strings.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid calendar date")

// Parse validates s as a real calendar date in YYYY-MM-DD form.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	return t, nil
}

func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(Layout)
}

// AddDays shifts a valid date by n days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := Parse(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(Layout)
}

// Before reports whether date a falls strictly before date b.
func Before(a, b string) bool {
	return a < b
}

// MonthPrefix returns the "YYYY-" or "YYYY-MM-" prefix shared by all dates in
// the given year and optional month. It returns "" when year is zero.
func MonthPrefix(year, month int) string {
	switch {
	case year <= 0:
		return ""
	case month >= 1 && month <= 12:
		return fmt.Sprintf("%04d-%02d-", year, month)
	default:
		return fmt.Sprintf("%04d-", year)
	}
}

// Range lists every date from start through start+days-1.
func Range(start string, days int) []string {
	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, AddDays(start, i))
	}
	return out
}
