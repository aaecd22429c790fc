package ladder

import (
	"fmt"
	"time"
)

// DateLayout is the fixed-width day format used for due dates.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. Because the format is fixed
// width, string comparison orders dates chronologically.
type Date string

// DateOf returns the calendar day of t in loc. A nil loc means UTC.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc).Format(DateLayout))
}

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(t.Format(DateLayout)), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

// AddDays returns the date n days after d. An invalid d is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	// Calendar arithmetic in UTC so DST shifts never skip or repeat a day.
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

// OnOrBefore reports whether d is the same day as other or earlier.
func (d Date) OnOrBefore(other Date) bool {
	return d <= other
}

func (d Date) String() string {
	return string(d)
}
