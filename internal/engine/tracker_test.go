package engine

import (
	"testing"
	"time"
)

// fakeClock is a settable clock for tracker and guard tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestTrackerProtectionWindow(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(3*time.Second, 10*time.Second)
	tracker.clock = clock.Now

	tracker.Begin("2025-09-05", OpSave)
	if !tracker.Protected("2025-09-05") {
		t.Error("pending key should be protected")
	}
	if tracker.Protected("2025-09-06") {
		t.Error("untouched key should not be protected")
	}

	tracker.Complete("2025-09-05", OpSave, true)
	if !tracker.Protected("2025-09-05") {
		t.Error("recently completed key should still be protected")
	}

	clock.Advance(4 * time.Second)
	if tracker.Protected("2025-09-05") {
		t.Error("protection should lapse after the window")
	}
}

func TestTrackerFailedOperationLeavesNoProtection(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(3*time.Second, 10*time.Second)
	tracker.clock = clock.Now

	tracker.Begin("2025-09-05", OpSave)
	tracker.Complete("2025-09-05", OpSave, false)

	if tracker.Protected("2025-09-05") {
		t.Error("failed operation should not protect the key")
	}
}

func TestTrackerRecentlyDeleted(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(3*time.Second, 10*time.Second)
	tracker.clock = clock.Now

	tracker.Begin("2025-09-05", OpDelete)
	tracker.Complete("2025-09-05", OpDelete, true)

	if !tracker.RecentlyDeleted("2025-09-05") {
		t.Error("deleted key should be in the recent-deletion set")
	}
	if tracker.RecentlyDeleted("2025-09-06") {
		t.Error("other keys should not be in the recent-deletion set")
	}

	clock.Advance(11 * time.Second)
	if tracker.RecentlyDeleted("2025-09-05") {
		t.Error("deletion memory should lapse after retention")
	}
}

func TestTrackerSaveIsNotADeletion(t *testing.T) {
	tracker := NewTracker(3*time.Second, 10*time.Second)

	tracker.Begin("2025-09-05", OpSave)
	tracker.Complete("2025-09-05", OpSave, true)

	if tracker.RecentlyDeleted("2025-09-05") {
		t.Error("a save must not mark the key recently deleted")
	}
}

func TestTrackerSweep(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(3*time.Second, 10*time.Second)
	tracker.clock = clock.Now

	tracker.Begin("2025-09-05", OpDelete)
	tracker.Complete("2025-09-05", OpDelete, true)

	clock.Advance(11 * time.Second)
	tracker.Sweep()

	if len(tracker.recent) != 0 || len(tracker.deleted) != 0 || len(tracker.pending) != 0 {
		t.Errorf("sweep should purge stale entries: pending=%d recent=%d deleted=%d",
			len(tracker.pending), len(tracker.recent), len(tracker.deleted))
	}
}

func TestTrackerSuppressed(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(3*time.Second, 10*time.Second)
	tracker.clock = clock.Now

	if tracker.Suppressed() {
		t.Error("fresh tracker should not suppress fetches")
	}

	tracker.Begin("2025-09-05", OpSave)
	if !tracker.Suppressed() {
		t.Error("in-flight operation should suppress fetches")
	}

	tracker.Complete("2025-09-05", OpSave, true)
	if !tracker.Suppressed() {
		t.Error("just-completed operation should suppress fetches")
	}

	clock.Advance(4 * time.Second)
	if tracker.Suppressed() {
		t.Error("suppression should lapse after the protection window")
	}
}
