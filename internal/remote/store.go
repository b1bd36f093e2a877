// Package remote defines the record store contract the sync engine consumes.
//
// The engine never talks to a concrete backend directly; it depends on the
// Store interface so that the CloudKit-style production client, the embedded
// SQLite backend and test fakes are interchangeable. Records live inside a
// zone, a per-user partition that can be shared with other devices.
package remote

import (
	"context"
	"time"

	"github.com/rotacal/rotacal/internal/schedule"
)

// Kind identifies a record kind in the store.
type Kind int

const (
	// KindDay is a per-calendar-day schedule record.
	KindDay Kind = iota
	// KindNote is a per-(month, year) note record.
	KindNote
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDay:
		return "day"
	case KindNote:
		return "note"
	default:
		return "unknown"
	}
}

// Record is one physical record as stored remotely.
//
// For KindDay records the Day key is set; for KindNote records the Month
// key is set. More than one physical record can exist for the same logical
// key when devices race; the engine's deduplicator collapses them.
type Record struct {
	// ID is the store-assigned identifier, opaque to the engine.
	ID string

	// Zone is the partition the record belongs to.
	Zone string

	// Kind distinguishes day records from note records.
	Kind Kind

	// Day is the logical key of a KindDay record.
	Day schedule.DayKey

	// Month is the logical key of a KindNote record.
	Month schedule.MonthKey

	// Lines holds the text fields. Length is 4 for KindDay and 3 for
	// KindNote; empty strings mean no value.
	Lines []string

	// ModTime is the server-side modification timestamp.
	ModTime time.Time
}

// Query selects records for a fetch.
//
// A zero Query matches every record of the requested kind. When From/Until
// are set, KindDay records are matched by day and KindNote records by the
// months overlapping the range.
type Query struct {
	// From is the inclusive lower bound of the range, zero for unbounded.
	From time.Time
	// Until is the exclusive upper bound of the range, zero for unbounded.
	Until time.Time
	// Day restricts the query to one logical day key (KindDay only).
	Day schedule.DayKey
	// Month restricts the query to one logical month key (KindNote only).
	Month schedule.MonthKey
}

// AccountStatus describes the user's standing with the remote store.
type AccountStatus int

const (
	// AccountUnknown means the status could not be determined.
	AccountUnknown AccountStatus = iota
	// AccountAvailable means the account is usable.
	AccountAvailable
	// AccountMissing means no account is configured on this device.
	AccountMissing
	// AccountRestricted means the account exists but access is denied.
	AccountRestricted
	// AccountTemporarilyUnavailable means the store is transiently down
	// for this account.
	AccountTemporarilyUnavailable
)

// String returns a human-readable name for the status.
func (s AccountStatus) String() string {
	switch s {
	case AccountAvailable:
		return "available"
	case AccountMissing:
		return "no account"
	case AccountRestricted:
		return "restricted"
	case AccountTemporarilyUnavailable:
		return "temporarily unavailable"
	default:
		return "unknown"
	}
}

// ShareHandle is an opaque reference to a created zone share, typically a
// URL the user hands to another participant.
type ShareHandle string

// Store is the remote record store the engine synchronizes against.
//
// All methods honor context cancellation for the transport they wrap; the
// engine itself never cancels an operation once issued.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// EnsureZone creates the rota zone if it does not exist and returns
	// its identifier. Fails with CodeZoneUnavailable when the store
	// cannot provide the zone.
	EnsureZone(ctx context.Context) (string, error)

	// Query returns the records of the given kind matching q, ordered by
	// logical key ascending. Fails with CodeQueryFailed on transport
	// errors.
	Query(ctx context.Context, kind Kind, q Query, zone string) ([]Record, error)

	// Create persists a new record and returns it with the store-assigned
	// ID and modification time filled in.
	Create(ctx context.Context, rec Record, zone string) (Record, error)

	// Update replaces the lines of an existing record, identified by
	// rec.ID and rec.Zone, and returns the stored result. Fails with
	// CodeConflict when the remote value changed since it was read, and
	// with CodeUnknownItem when the record is gone.
	Update(ctx context.Context, rec Record) (Record, error)

	// Delete removes a record by ID. Deleting a record that does not
	// exist fails with CodeUnknownItem.
	Delete(ctx context.Context, id, zone string) error

	// AccountStatus reports the user's standing with the store.
	AccountStatus(ctx context.Context) (AccountStatus, error)

	// CreateShare creates a share for the zone so other participants can
	// join it. Fails with CodeShareFailed.
	CreateShare(ctx context.Context, zone string) (ShareHandle, error)
}
