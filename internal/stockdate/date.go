// Package stockdate computes the UTC datetimes stored on an event stock from
// the timezone-naive values a venue enters in its own department's local
// time.  Everything in this package is a pure computation: no I/O and no
// shared mutable state.
package stockdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/stock-scheduler/internal/timezone"
)

const (
	// DateLayout is the wire format of a local calendar date.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of a local time of day.
	TimeLayout = "15:04"
	// PayloadLayout formats UTC instants at second precision with a Z marker.
	PayloadLayout = "2006-01-02T15:04:05Z"
)

// LocalDate is a calendar date with no time of day and no zone.  The zone is
// implied by the venue's department.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewLocalDate builds a date, normalizing out-of-range days the way time.Date does.
func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseLocalDate parses a "2006-01-02" string.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return LocalDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero value.
func (d LocalDate) IsZero() bool { return d == LocalDate{} }

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d LocalDate) Compare(o LocalDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly before o.
func (d LocalDate) Before(o LocalDate) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly after o.
func (d LocalDate) After(o LocalDate) bool { return d.Compare(o) > 0 }

// AddDays returns the date n days after d (n may be negative).
func (d LocalDate) AddDays(n int) LocalDate {
	return NewLocalDate(d.Year, d.Month, d.Day+n)
}

// Weekday returns the day of the week of d.
func (d LocalDate) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// MarshalText implements encoding.TextMarshaler.
func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *LocalDate) UnmarshalText(b []byte) error {
	v, err := ParseLocalDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// LocalTime is a wall-clock time of day at minute precision.
type LocalTime struct {
	Hour   int
	Minute int
}

// ParseLocalTime parses a "15:04" string.
func ParseLocalTime(s string) (LocalTime, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return LocalTime{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return LocalTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOf returns the time of day of t in t's own location, dropping seconds.
func TimeOf(t time.Time) LocalTime {
	return LocalTime{Hour: t.Hour(), Minute: t.Minute()}
}

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (t LocalTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LocalTime) UnmarshalText(b []byte) error {
	v, err := ParseLocalTime(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// LocalDateTime is a timezone-naive date and time of day.
type LocalDateTime struct {
	Date   LocalDate
	Hour   int
	Minute int
	Second int
}

// In interprets dt as wall-clock time in loc.  Wall times that fall in a
// daylight-saving gap are normalized forward by time.Date.
func (dt LocalDateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Date.Year, dt.Date.Month, dt.Date.Day, dt.Hour, dt.Minute, dt.Second, 0, loc)
}

// SameDay reports whether both values fall on the same calendar date.
func (dt LocalDateTime) SameDay(o LocalDateTime) bool {
	return dt.Date == o.Date
}

func (dt LocalDateTime) String() string {
	return fmt.Sprintf("%sT%02d:%02d:%02d", dt.Date, dt.Hour, dt.Minute, dt.Second)
}

// TodayIn returns the calendar date of now in the department's timezone.
func TodayIn(now time.Time, departmentCode string) LocalDate {
	return DateOf(timezone.UTCToLocal(now, departmentCode))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
