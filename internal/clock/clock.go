package clock

import "time"

// Clock supplies the current calendar date.
type Clock interface {
	Today() time.Time
}

// Date returns the calendar date of t as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// System reads the local wall clock.
type System struct{}

func (System) Today() time.Time {
	return Date(time.Now())
}

// Fixed always returns the same day.
type Fixed time.Time

func (f Fixed) Today() time.Time {
	return Date(time.Time(f))
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// FormatDate formats a calendar date the way it is stored.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
