package schedule

import (
	"fmt"
	"time"
)

// NoteField identifies one of the three text lines on a MonthNote.
type NoteField int

const (
	// NoteLine1 is the first note line.
	NoteLine1 NoteField = iota
	// NoteLine2 is the second note line.
	NoteLine2
	// NoteLine3 is the third note line.
	NoteLine3

	// NumNoteFields is the number of lines on a MonthNote.
	NumNoteFields
)

// String returns a human-readable name for the field.
func (f NoteField) String() string {
	switch f {
	case NoteLine1:
		return "line1"
	case NoteLine2:
		return "line2"
	case NoteLine3:
		return "line3"
	default:
		return "unknown"
	}
}

// Valid reports whether f is a defined note field.
func (f NoteField) Valid() bool {
	return f >= 0 && f < NumNoteFields
}

// MonthNote represents the free-form notes attached to one (month, year).
//
// It mirrors DayEntry: empty RemoteID means never persisted, all-empty
// lines with a RemoteID means a pending remote deletion.
type MonthNote struct {
	// Key is the (month, year) pair.
	Key MonthKey

	// RemoteID is the opaque identifier assigned by the remote store.
	// Empty until the note has been persisted at least once.
	RemoteID string

	// Zone is the remote partition the note belongs to.
	Zone string

	// Lines holds the note text. Empty string means no value.
	Lines [NumNoteFields]string

	// Modified is true when the local line values differ from the last
	// known-persisted state.
	Modified bool

	// ModTime is the server modification time of the last persisted
	// state, used as the dedup recency tie-break.
	ModTime time.Time
}

// Completeness returns the count of non-empty lines.
func (n *MonthNote) Completeness() int {
	c := 0
	for _, line := range n.Lines {
		if line != "" {
			c++
		}
	}
	return c
}

// Empty reports whether every line is empty.
func (n *MonthNote) Empty() bool {
	return n.Completeness() == 0
}

// Persisted reports whether the note has ever been saved remotely.
func (n *MonthNote) Persisted() bool {
	return n.RemoteID != ""
}

// Clone returns a copy of the note.
func (n *MonthNote) Clone() *MonthNote {
	c := *n
	return &c
}

// Validate checks the note's field values.
func (n *MonthNote) Validate() error {
	if n.Key.IsZero() {
		return fmt.Errorf("month key is required")
	}
	if n.RemoteID != "" && n.Zone == "" {
		return fmt.Errorf("persisted note %s is missing its zone", n.Key)
	}
	return nil
}
