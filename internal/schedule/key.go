// Package schedule provides the data structures for rota calendar records.
//
// Two record kinds exist: DayEntry (one per calendar day, four role lines)
// and MonthNote (one per month, three note lines). Both are identified by a
// logical key that is stable across devices: the calendar day, or the
// (month, year) pair, always evaluated in UTC so that devices in different
// time zones agree on which record a day belongs to.
package schedule

import (
	"fmt"
	"time"
)

// DayKey identifies one calendar day in UTC.
//
// It is a comparable value type so it can be used directly as a map key.
// Construct it with NewDayKey to guarantee UTC truncation.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDayKey truncates t to its calendar day in UTC.
func NewDayKey(t time.Time) DayKey {
	u := t.UTC()
	return DayKey{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// Time returns the key as midnight UTC of its day.
func (k DayKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// String returns the canonical form YYYY-MM-DD.
func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// Before reports whether k is earlier than other.
func (k DayKey) Before(other DayKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// IsZero reports whether the key is the zero value.
func (k DayKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0 && k.Day == 0
}

// ParseDayKey parses the canonical YYYY-MM-DD form.
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return DayKey{}, fmt.Errorf("failed to parse day key %q: %w", s, err)
	}
	return NewDayKey(t), nil
}

// MonthKey identifies one (month, year) pair.
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey truncates t to its month in UTC.
func NewMonthKey(t time.Time) MonthKey {
	u := t.UTC()
	return MonthKey{Year: u.Year(), Month: u.Month()}
}

// String returns the canonical form YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Before reports whether k is earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// IsZero reports whether the key is the zero value.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// ParseMonthKey parses the canonical YYYY-MM form.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.ParseInLocation("2006-01", s, time.UTC)
	if err != nil {
		return MonthKey{}, fmt.Errorf("failed to parse month key %q: %w", s, err)
	}
	return NewMonthKey(t), nil
}
