package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a calendar date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// CalendarDate is a civil date without a time zone. Year may be zero when
// only the month and day are known ("--01-20").
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseCalendarDate accepts "YYYY-MM-DD" and the year-less "--MM-DD" form.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "--") {
		parts := strings.Split(s[2:], "-")
		if len(parts) != 2 {
			return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		m, err1 := strconv.Atoi(parts[0])
		d, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || len(parts[0]) != 2 || len(parts[1]) != 2 {
			return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		// 2000 is a leap year, so --02-29 is accepted.
		t := time.Date(2000, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if int(t.Month()) != m || t.Day() != d {
			return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return CalendarDate{Month: time.Month(m), Day: d}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d.Month == 0 || d.Day == 0
}

// SameMonthDay reports whether t falls on the same month and day as d.
// The year is ignored.
func (d CalendarDate) SameMonthDay(t time.Time) bool {
	_, m, day := t.Date()
	return d.Month == m && d.Day == day
}

// Time returns midnight UTC on the date, or the zero time when the year is unknown.
func (d CalendarDate) Time() time.Time {
	if d.IsZero() || d.Year == 0 {
		return time.Time{}
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	if d.Year == 0 {
		return fmt.Sprintf("--%02d-%02d", int(d.Month), d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
