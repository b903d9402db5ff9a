// Package dates implements day keys: calendar dates used to group and order
// journal entries and todo due dates. All arithmetic happens in one fixed
// calendar, so a Day never carries a time of day or a zone of its own.
package dates

import (
	"fmt"
	"time"
)

// Layout is the textual form of a Day.
const Layout = "2006-01-02"

// Day is a calendar date. The zero value is "no day".
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// Of returns the Day t falls on when observed in loc.
func Of(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Dom: d}
}

// Today returns the day key for now in loc.
func Today(now time.Time, loc *time.Location) Day {
	return Of(now, loc)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Of(t, time.UTC), nil
}

// MustParseDay is ParseDay for constants and tests.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Dom)
}

// Time returns midnight of d in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, loc)
}

// AddDays moves d by n days (n may be negative). Month and year rollovers
// are handled by the calendar, not by the caller.
func (d Day) AddDays(n int) Day {
	return Of(d.Time(time.UTC).AddDate(0, 0, n), time.UTC)
}

func (d Day) Before(o Day) bool { return d.compare(o) < 0 }
func (d Day) After(o Day) bool  { return d.compare(o) > 0 }
func (d Day) Equal(o Day) bool  { return d == o }

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int { return d.compare(o) }

func (d Day) compare(o Day) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Dom - o.Dom)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// MarshalText/UnmarshalText let a Day travel as "YYYY-MM-DD" in JSON.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LoadLocation resolves a zone name, treating "" and "UTC" as time.UTC and
// "Local" as the process zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
