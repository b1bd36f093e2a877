package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rotacal/rotacal/internal/remote"
	"github.com/rotacal/rotacal/internal/schedule"
)

// recordingNotifier captures engine events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestFetchAllMergesRemoteRecords(t *testing.T) {
	store := newFakeStore()
	dayKey := mustDayKey(t, "2025-09-05")
	noteKey := mustMonthKey(t, "2025-09")
	store.seed(remote.Record{
		Kind:  remote.KindDay,
		Day:   dayKey,
		Lines: []string{"DR.SMITH", "DR.JONES"},
	})
	store.seed(remote.Record{
		Kind:  remote.KindNote,
		Month: noteKey,
		Lines: []string{"conference on the 12th"},
	})

	eng, _ := newTestEngine(t, store)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	entry, ok := eng.Day(dayKey)
	if !ok {
		t.Fatal("fetched day missing from cache")
	}
	if entry.Lines[schedule.FieldFirstOn] != "DR.SMITH" ||
		entry.Lines[schedule.FieldSecondOn] != "DR.JONES" {
		t.Errorf("day lines wrong: %v", entry.Lines)
	}
	if entry.Modified {
		t.Error("fetched entry should not be marked modified")
	}

	note, ok := eng.Note(noteKey)
	if !ok || note.Lines[schedule.NoteLine1] != "conference on the 12th" {
		t.Errorf("fetched note wrong: %v ok=%v", note.Lines, ok)
	}
}

func TestFetchAllSkippedWhileSessionActive(t *testing.T) {
	store := newFakeStore()
	store.seed(remote.Record{
		Kind: remote.KindDay,
		Day:  mustDayKey(t, "2025-09-05"),
	})

	eng, _ := newTestEngine(t, store)
	eng.StartSession("editor-1")

	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("gated fetch should report success, got %v", err)
	}
	if store.queryCalls != 0 {
		t.Errorf("gated fetch should not reach the store, got %d queries", store.queryCalls)
	}
	if len(eng.Days()) != 0 {
		t.Error("gated fetch must leave the cache untouched")
	}

	eng.EndSession("editor-1")
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(eng.Days()) != 1 {
		t.Errorf("expected 1 day after the session ended, got %d", len(eng.Days()))
	}
}

func TestFetchAllSkippedInsideProtectionWindow(t *testing.T) {
	store := newFakeStore()
	eng, clock := newTestEngine(t, store)
	key := mustDayKey(t, "2025-09-05")

	if err := eng.SaveDay(context.Background(), key, [schedule.NumDayFields]string{"DR.SMITH"}); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}
	queriesAfterSave := store.queryCalls

	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("gated fetch should report success, got %v", err)
	}
	if store.queryCalls != queriesAfterSave {
		t.Error("fetch inside the protection window should not reach the store")
	}

	clock.Advance(4 * time.Second)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if store.queryCalls == queriesAfterSave {
		t.Error("fetch after the protection window should reach the store")
	}
}

func TestFetchAllKeepsUnsavedEdit(t *testing.T) {
	store := newFakeStore()
	key := mustDayKey(t, "2025-09-05")
	store.seed(remote.Record{
		Kind:  remote.KindDay,
		Day:   key,
		Lines: []string{"", "DR.JONES"},
	})

	eng, _ := newTestEngine(t, store)
	eng.UpdateField(key, schedule.FieldFirstOn, "DR.SMITH")

	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	entry, _ := eng.Day(key)
	if entry.Lines[schedule.FieldFirstOn] != "DR.SMITH" {
		t.Errorf("unsaved edit overwritten by fetch: %q", entry.Lines[schedule.FieldFirstOn])
	}
	if !entry.Modified {
		t.Error("unsaved edit should stay marked modified")
	}
}

func TestFetchAllDoesNotResurrectDeletedDay(t *testing.T) {
	store := newFakeStore()
	key := mustDayKey(t, "2025-09-05")
	rec := store.seed(remote.Record{
		ID:    "rec123",
		Kind:  remote.KindDay,
		Day:   key,
		Lines: []string{"DR.SMITH"},
	})

	eng, clock := newTestEngine(t, store)
	eng.days[key] = &schedule.DayEntry{Key: key, RemoteID: rec.ID, Zone: "rota"}

	if err := eng.SaveDay(context.Background(), key, [schedule.NumDayFields]string{}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The store lags behind and still returns the deleted record.
	store.seed(rec)
	clock.Advance(4 * time.Second)

	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if _, ok := eng.Day(key); ok {
		t.Error("recently deleted day must not be resurrected by a fetch")
	}
}

func TestFetchAllCollapsesDuplicateRecords(t *testing.T) {
	store := newFakeStore()
	key := mustDayKey(t, "2025-09-05")
	store.seed(remote.Record{
		ID:    "rec-thin",
		Kind:  remote.KindDay,
		Day:   key,
		Lines: []string{"DR.SMITH"},
	})
	store.seed(remote.Record{
		ID:    "rec-full",
		Kind:  remote.KindDay,
		Day:   key,
		Lines: []string{"DR.SMITH", "DR.JONES", "DR.WU"},
	})

	eng, _ := newTestEngine(t, store)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	entry, _ := eng.Day(key)
	if entry.RemoteID != "rec-full" {
		t.Errorf("expected the most complete duplicate to survive, got %s", entry.RemoteID)
	}
	if store.has("rec-thin") {
		t.Error("losing duplicate should be deleted from the store")
	}
	if !store.has("rec-full") {
		t.Error("surviving duplicate should remain in the store")
	}
}

func TestFetchAllFailurePreservesModifiedEntries(t *testing.T) {
	store := newFakeStore()
	eng, _ := newTestEngine(t, store)
	key := mustDayKey(t, "2025-09-05")
	eng.UpdateField(key, schedule.FieldFirstOn, "DR.SMITH")

	store.queryFailures = 2
	store.queryErr = remote.NewError(remote.CodeNetworkUnavailable, "query",
		errors.New("connection reset"))

	if err := eng.FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if _, ok := eng.Day(key); !ok {
		t.Error("modified entry must survive a failed fetch")
	}
}

func TestFetchAllFailureClearsUnmodifiedEntries(t *testing.T) {
	store := newFakeStore()
	store.seed(remote.Record{
		Kind: remote.KindDay,
		Day:  mustDayKey(t, "2025-09-05"),
	})

	eng, clock := newTestEngine(t, store)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(eng.Days()) != 1 {
		t.Fatalf("expected 1 cached day, got %d", len(eng.Days()))
	}

	clock.Advance(4 * time.Second)
	store.queryFailures = 2
	store.queryErr = remote.NewError(remote.CodeNetworkUnavailable, "query",
		errors.New("connection reset"))

	if err := eng.FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(eng.Days()) != 0 {
		t.Error("unmodified cache should be cleared when the fetch fails")
	}
}

func TestUpdateFieldCreatesEntryOnFirstEdit(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeStore())
	key := mustDayKey(t, "2025-09-05")

	eng.UpdateField(key, schedule.FieldFirstOn, "DR.SMITH")

	entry, ok := eng.Day(key)
	if !ok {
		t.Fatal("first edit should create the entry")
	}
	if !entry.Modified {
		t.Error("edited entry should be marked modified")
	}
	if !eng.HasUnsavedChanges() {
		t.Error("HasUnsavedChanges should report true")
	}
}

func TestUpdateFieldEmptyValueOnMissingEntryIsNoop(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeStore())
	key := mustDayKey(t, "2025-09-05")

	eng.UpdateField(key, schedule.FieldFirstOn, "")
	if _, ok := eng.Day(key); ok {
		t.Error("clearing a field on a missing entry should not create one")
	}
}

func TestUpdateFieldUnchangedValueKeepsCleanFlag(t *testing.T) {
	store := newFakeStore()
	key := mustDayKey(t, "2025-09-05")
	store.seed(remote.Record{
		Kind:  remote.KindDay,
		Day:   key,
		Lines: []string{"DR.SMITH"},
	})

	eng, _ := newTestEngine(t, store)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	eng.UpdateField(key, schedule.FieldFirstOn, "DR.SMITH")
	entry, _ := eng.Day(key)
	if entry.Modified {
		t.Error("writing the same value should not mark the entry modified")
	}
}

func TestEngineEvents(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}

	config := DefaultConfig()
	config.Notifier = notifier
	eng, err := NewWithConfig(store, config)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	clock := newFakeClock()
	eng.tracker.clock = clock.Now
	eng.sessions.clock = clock.Now

	key := mustDayKey(t, "2025-09-05")
	if err := eng.SaveDay(context.Background(), key, [schedule.NumDayFields]string{"DR.SMITH"}); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}
	clock.Advance(4 * time.Second)
	if err := eng.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	types := notifier.types()
	want := []EventType{EventSaved, EventFetchMerged}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestCreateShare(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeStore())

	handle, err := eng.CreateShare(context.Background())
	if err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}
	if handle == "" {
		t.Error("expected a non-empty share handle")
	}
}

func TestAccountStatusPassthrough(t *testing.T) {
	eng, _ := newTestEngine(t, newFakeStore())

	status, err := eng.AccountStatus(context.Background())
	if err != nil {
		t.Fatalf("AccountStatus failed: %v", err)
	}
	if status != remote.AccountAvailable {
		t.Errorf("expected available account, got %v", status)
	}
}
