package engine

import (
	"sync"
	"time"
)

// OpKind distinguishes the operations the tracker records.
type OpKind int

const (
	// OpSave is a create-or-update against the remote store.
	OpSave OpKind = iota
	// OpDelete is a remote record deletion.
	OpDelete
)

// String returns a human-readable name for the kind.
func (k OpKind) String() string {
	switch k {
	case OpSave:
		return "save"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Tracker records which logical keys have in-flight, recently-completed, or
// recently-deleted operations.
//
// The protection it provides is a coarse, global debounce, not a per-key
// lock: a key counts as protected while it sits in the pending or
// recent-success set AND the shared last-operation stamp is younger than
// the protection window. That is enough to keep a fetch racing the store's
// eventual consistency from resurrecting or overwriting a just-written
// value, because the UI is the sole local writer.
//
// Keys are the canonical string forms of the logical keys (YYYY-MM-DD for
// days, YYYY-MM for months); the two formats cannot collide.
type Tracker struct {
	mu sync.Mutex

	// clock is replaceable for tests.
	clock func() time.Time

	protection time.Duration
	retention  time.Duration

	pending map[string]time.Time
	recent  map[string]time.Time
	deleted map[string]time.Time

	lastOp time.Time
}

// NewTracker creates a tracker with the given protection window and
// retention horizon. A non-positive value falls back to the default
// (3 s protection, 10 s retention).
func NewTracker(protection, retention time.Duration) *Tracker {
	if protection <= 0 {
		protection = 3 * time.Second
	}
	if retention <= 0 {
		retention = 10 * time.Second
	}
	return &Tracker{
		clock:      time.Now,
		protection: protection,
		retention:  retention,
		pending:    make(map[string]time.Time),
		recent:     make(map[string]time.Time),
		deleted:    make(map[string]time.Time),
	}
}

// Begin marks key as having an in-flight operation of the given kind and
// stamps the shared last-operation time.
func (t *Tracker) Begin(key string, kind OpKind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	t.pending[key] = now
	t.lastOp = now
}

// Complete removes key from the pending set. On success the key moves to
// the recent-success set, and deletions are additionally remembered in the
// recent-deletion set. Failed operations leave no protection behind.
func (t *Tracker) Complete(key string, kind OpKind, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, key)
	if !success {
		return
	}

	now := t.clock()
	t.recent[key] = now
	t.lastOp = now
	if kind == OpDelete {
		t.deleted[key] = now
	}
}

// Protected reports whether a fetch-driven overwrite of key must be
// suppressed: the key has a pending or recently-successful operation and
// the shared last-operation stamp is inside the protection window.
func (t *Tracker) Protected(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, isPending := t.pending[key]
	_, isRecent := t.recent[key]
	if !isPending && !isRecent {
		return false
	}
	return t.clock().Sub(t.lastOp) < t.protection
}

// RecentlyDeleted reports whether key was deleted within the retention
// horizon. A merge must drop any incoming entry for such a key.
func (t *Tracker) RecentlyDeleted(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	stamp, ok := t.deleted[key]
	if !ok {
		return false
	}
	return t.clock().Sub(stamp) < t.retention
}

// Suppressed reports whether a whole-cache refresh should be skipped right
// now: an operation is still in flight, or the last one completed inside
// the protection window.
func (t *Tracker) Suppressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) > 0 {
		return true
	}
	return !t.lastOp.IsZero() && t.clock().Sub(t.lastOp) < t.protection
}

// Sweep purges entries older than the retention horizon from every set.
// Called after each completed fetch to bound memory.
func (t *Tracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.clock().Add(-t.retention)
	for key, stamp := range t.pending {
		if stamp.Before(cutoff) {
			delete(t.pending, key)
		}
	}
	for key, stamp := range t.recent {
		if stamp.Before(cutoff) {
			delete(t.recent, key)
		}
	}
	for key, stamp := range t.deleted {
		if stamp.Before(cutoff) {
			delete(t.deleted, key)
		}
	}
}
