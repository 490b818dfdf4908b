// Package core holds the flowcast domain model: dates, money, accounts,
// cards, transactions, recurrences, overrides and health levels.
//
// Everything in this package is plain data plus validation. The projection
// engine in internal/engine consumes these types as an immutable snapshot
// and never mutates them.
package core

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day component, always UTC.
// Using UTC for all date arithmetic keeps month advances stable regardless
// of the host timezone.
type Date struct {
	time.Time
}

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a Date from year, month and day. Out-of-range components
// normalize the standard calendar way (day 31 in a 30-day month rolls into
// the next month).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an arbitrary instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// YearMonth returns a YYYY-MM key, the grouping unit for invoices and
// monthly summaries.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// DaysUntil returns the number of calendar days from d to other
// (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time) / (24 * time.Hour))
}

// MonthAnchor builds the k-th monthly occurrence date anchored on
// (anchor.Year, anchor.Month+k, dayOfMonth). Each occurrence normalizes
// independently from the anchor, so a day-31 rule never drifts after
// rolling through a short month.
func MonthAnchor(anchor Date, k, dayOfMonth int) Date {
	return NewDate(anchor.Year(), anchor.Month()+k, dayOfMonth)
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
