package engine

import "time"

// EventType labels an engine event for monitoring consumers.
type EventType string

const (
	// EventFetchMerged fires after a fetch has been merged into the cache.
	EventFetchMerged EventType = "fetch_merged"

	// EventFetchSkipped fires when a refresh was suppressed by an active
	// edit session or the protection window.
	EventFetchSkipped EventType = "fetch_skipped"

	// EventSaved fires after a day entry or month note was persisted.
	EventSaved EventType = "saved"

	// EventDeleted fires after a remote record was deleted.
	EventDeleted EventType = "deleted"

	// EventSyncError fires when a fetch or save failed terminally.
	EventSyncError EventType = "sync_error"
)

// Event describes one engine state transition for monitoring.
type Event struct {
	Type      EventType `json:"type"`
	Key       string    `json:"key,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives engine events. Implementations must not block; the
// engine calls Notify synchronously on its own goroutine.
type Notifier interface {
	Notify(Event)
}

// notify publishes an event if a notifier is configured.
func (e *Engine) notify(typ EventType, key, detail string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(Event{
		Type:      typ,
		Key:       key,
		Detail:    detail,
		Timestamp: e.clock(),
	})
}
