package schedule

import (
	"fmt"
	"time"
)

// DayField identifies one of the four role lines on a DayEntry.
//
// Fields are a closed enum so that callers switch exhaustively instead of
// dispatching on line names.
type DayField int

const (
	// FieldFirstOn is the first on-call line.
	FieldFirstOn DayField = iota
	// FieldSecondOn is the second on-call line.
	FieldSecondOn
	// FieldThirdOn is the third on-call line.
	FieldThirdOn
	// FieldNotes is the free-form day note line.
	FieldNotes

	// NumDayFields is the number of lines on a DayEntry.
	NumDayFields
)

// String returns a human-readable name for the field.
func (f DayField) String() string {
	switch f {
	case FieldFirstOn:
		return "first_on"
	case FieldSecondOn:
		return "second_on"
	case FieldThirdOn:
		return "third_on"
	case FieldNotes:
		return "notes"
	default:
		return "unknown"
	}
}

// Valid reports whether f is a defined day field.
func (f DayField) Valid() bool {
	return f >= 0 && f < NumDayFields
}

// DayEntry represents one calendar day's schedule.
//
// An entry with an empty RemoteID has never been persisted to the remote
// store. An entry whose lines are all empty but that still carries a
// RemoteID is a pending remote deletion, not a no-op.
type DayEntry struct {
	// Key is the calendar day, truncated in UTC.
	Key DayKey

	// RemoteID is the opaque identifier assigned by the remote store.
	// Empty until the entry has been persisted at least once.
	RemoteID string

	// Zone is the remote partition the entry belongs to. Required for
	// any update or delete against the store.
	Zone string

	// Lines holds the role assignments. Empty string means no value;
	// absence and empty are never distinguished.
	Lines [NumDayFields]string

	// Modified is true when the local line values differ from the last
	// known-persisted state.
	Modified bool

	// ModTime is the server modification time of the last persisted
	// state, used as the dedup recency tie-break.
	ModTime time.Time
}

// Completeness returns the count of non-empty lines.
func (e *DayEntry) Completeness() int {
	n := 0
	for _, line := range e.Lines {
		if line != "" {
			n++
		}
	}
	return n
}

// Empty reports whether every line is empty.
func (e *DayEntry) Empty() bool {
	return e.Completeness() == 0
}

// Persisted reports whether the entry has ever been saved remotely.
func (e *DayEntry) Persisted() bool {
	return e.RemoteID != ""
}

// Clone returns a copy of the entry.
func (e *DayEntry) Clone() *DayEntry {
	c := *e
	return &c
}

// Validate checks the entry's field values.
func (e *DayEntry) Validate() error {
	if e.Key.IsZero() {
		return fmt.Errorf("day key is required")
	}
	if e.RemoteID != "" && e.Zone == "" {
		return fmt.Errorf("persisted entry %s is missing its zone", e.Key)
	}
	return nil
}
