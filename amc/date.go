package amc

import (
	"time"
)

// =============================================================================
// DATE - Calendar day (contracts, payments and work logs are day-granular)
// =============================================================================

// DateLayout is the wire format for dates.
const DateLayout = "2006-01-02"

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location, expressed in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date  { return d.AddMonths(12 * n) }

// AddMonths moves d by n calendar months, clamping the day to the end of the
// target month: Jan 31 + 1 month = Feb 28 (Feb 29 in leap years).
func (d Date) AddMonths(n int) Date {
	first := StartOfMonth(d.Year(), d.Month()).Time.AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return NewDate(first.Year(), first.Month(), min(d.Day(), last))
}

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }
func (d Date) String() string    { return d.Time.Format(DateLayout) }

// FormatOptional renders a nullable date, "" for nil.
func FormatOptional(d *Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// =============================================================================
// DAY ARITHMETIC
// =============================================================================

const day = 24 * time.Hour

// DaysUntil returns ceil((end - asOf) / 1 day). A partial day left counts as a
// whole day; an end already passed yields zero or a negative count.
func DaysUntil(end Date, asOf time.Time) int {
	diff := end.Time.Sub(asOf)
	days := int(diff / day)
	// Integer division truncates toward zero, which is already the ceiling
	// for negative differences.
	if diff > 0 && diff%day != 0 {
		days++
	}
	return days
}

// DaysBetween returns the whole days from one date to another.
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time) / day) }

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}
func EndOfMonth(year int, month time.Month) Date {
	return Date{Time: StartOfMonth(year, month).Time.AddDate(0, 1, -1)}
}
