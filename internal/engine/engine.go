package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rotacal/rotacal/internal/remote"
	"github.com/rotacal/rotacal/internal/schedule"
)

// Config holds configuration for the engine.
type Config struct {
	// ProtectionWindow is how long after a local operation fetch-driven
	// overwrites of the same key are suppressed.
	ProtectionWindow time.Duration

	// Retention is how long completed and deleted operations are
	// remembered before Sweep purges them.
	Retention time.Duration

	// SessionMaxLifetime is the defensive upper bound on an edit
	// session; a leaked session stops blocking fetches after this long.
	SessionMaxLifetime time.Duration

	// SaveAttempts is the total attempt bound for one save invocation.
	SaveAttempts int

	// Logger for engine activity.
	Logger *log.Logger

	// Notifier receives engine events. Optional.
	Notifier Notifier
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProtectionWindow:   3 * time.Second,
		Retention:          10 * time.Second,
		SessionMaxLifetime: 2 * time.Minute,
		SaveAttempts:       3,
		Logger:             log.New(os.Stderr, "[engine] ", log.LstdFlags),
	}
}

// Engine reconciles the local rota cache against the remote record store.
//
// Construct one per process and hand it by reference to consumers; there
// is deliberately no package-level instance.
type Engine struct {
	store    remote.Store
	config   *Config
	logger   *log.Logger
	notifier Notifier
	clock    func() time.Time

	tracker  *Tracker
	sessions *SessionGuard

	mu    sync.Mutex
	zone  string
	days  map[schedule.DayKey]*schedule.DayEntry
	notes map[schedule.MonthKey]*schedule.MonthNote
}

// New creates an engine with default configuration.
func New(store remote.Store) (*Engine, error) {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store remote.Store, config *Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.SaveAttempts <= 0 {
		config.SaveAttempts = 3
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}

	return &Engine{
		store:    store,
		config:   config,
		logger:   logger,
		notifier: config.Notifier,
		clock:    time.Now,
		tracker:  NewTracker(config.ProtectionWindow, config.Retention),
		sessions: NewSessionGuard(config.SessionMaxLifetime),
		days:     make(map[schedule.DayKey]*schedule.DayEntry),
		notes:    make(map[schedule.MonthKey]*schedule.MonthNote),
	}, nil
}

// StartSession registers an active edit session. While any session is
// active, FetchAll is a no-op.
func (e *Engine) StartSession(id string) {
	e.sessions.Start(id)
}

// EndSession releases an edit session.
func (e *Engine) EndSession(id string) {
	e.sessions.End(id)
}

// FetchAll refreshes the local cache from the remote store.
//
// The fetch is gated: it no-ops while an edit session is active or while
// the tracker's protection window is open. The day and note queries run in
// parallel and both are joined before any merge happens. Merging preserves
// locally modified entries and honors recent deletions; see mergeDays.
//
// On a query failure the affected cache slice is cleared only when it
// holds no modified entries, otherwise it is left untouched: stale but
// safe beats empty but wrong.
func (e *Engine) FetchAll(ctx context.Context) error {
	if e.sessions.Active() {
		e.logger.Printf("Fetch skipped: edit session active")
		e.notify(EventFetchSkipped, "", "edit session active")
		return nil
	}
	if e.tracker.Suppressed() {
		e.logger.Printf("Fetch skipped: inside protection window")
		e.notify(EventFetchSkipped, "", "protection window")
		return nil
	}

	zone, err := e.ensureZone(ctx)
	if err != nil {
		e.notify(EventSyncError, "", err.Error())
		return fmt.Errorf("failed to ensure zone: %w", err)
	}

	var (
		dayRecs, noteRecs []remote.Record
		dayOK, noteOK     bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := e.store.Query(gctx, remote.KindDay, remote.Query{}, zone)
		if err != nil {
			return fmt.Errorf("day query: %w", err)
		}
		dayRecs = recs
		dayOK = true
		return nil
	})
	g.Go(func() error {
		recs, err := e.store.Query(gctx, remote.KindNote, remote.Query{}, zone)
		if err != nil {
			return fmt.Errorf("note query: %w", err)
		}
		noteRecs = recs
		noteOK = true
		return nil
	})
	fetchErr := g.Wait()

	var losers []remote.Record

	e.mu.Lock()
	if dayOK {
		kept, lose := dedupeRecords(dayRecs, dayRecordKey)
		losers = append(losers, lose...)

		baseline := make([]*schedule.DayEntry, 0, len(kept))
		for _, rec := range kept {
			baseline = append(baseline, recordToDay(rec))
		}
		merged := mergeDays(baseline, e.dayListLocked(), e.tracker)
		e.days = make(map[schedule.DayKey]*schedule.DayEntry, len(merged))
		for _, entry := range merged {
			e.days[entry.Key] = entry
		}
	} else if !e.hasModifiedDaysLocked() {
		e.days = make(map[schedule.DayKey]*schedule.DayEntry)
	}

	if noteOK {
		kept, lose := dedupeRecords(noteRecs, noteRecordKey)
		losers = append(losers, lose...)

		baseline := make([]*schedule.MonthNote, 0, len(kept))
		for _, rec := range kept {
			baseline = append(baseline, recordToNote(rec))
		}
		merged := mergeNotes(baseline, e.noteListLocked(), e.tracker)
		e.notes = make(map[schedule.MonthKey]*schedule.MonthNote, len(merged))
		for _, note := range merged {
			e.notes[note.Key] = note
		}
	} else if !e.hasModifiedNotesLocked() {
		e.notes = make(map[schedule.MonthKey]*schedule.MonthNote)
	}
	e.mu.Unlock()

	e.tracker.Sweep()

	// House-keeping: duplicates that lost deduplication are removed from
	// the store best-effort. The local view is already correct.
	for _, rec := range losers {
		if err := e.store.Delete(ctx, rec.ID, rec.Zone); err != nil {
			e.logger.Printf("Warning: failed to delete duplicate record %s: %v", rec.ID, err)
		}
	}

	if fetchErr != nil {
		e.notify(EventSyncError, "", fetchErr.Error())
		return fmt.Errorf("fetch failed: %w", fetchErr)
	}

	e.notify(EventFetchMerged, "", fmt.Sprintf("%d days, %d notes", len(dayRecs), len(noteRecs)))
	return nil
}

// UpdateField sets one line of a day entry and marks it modified. The
// entry is created on first edit; setting an empty value on a day that has
// no entry stays a no-op.
func (e *Engine) UpdateField(key schedule.DayKey, field schedule.DayField, value string) {
	if !field.Valid() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.days[key]
	if !ok {
		if value == "" {
			return
		}
		entry = &schedule.DayEntry{Key: key}
		e.days[key] = entry
	}
	if entry.Lines[field] == value {
		return
	}
	entry.Lines[field] = value
	entry.Modified = true
}

// UpdateNoteField sets one line of a month note and marks it modified.
func (e *Engine) UpdateNoteField(key schedule.MonthKey, field schedule.NoteField, value string) {
	if !field.Valid() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	note, ok := e.notes[key]
	if !ok {
		if value == "" {
			return
		}
		note = &schedule.MonthNote{Key: key}
		e.notes[key] = note
	}
	if note.Lines[field] == value {
		return
	}
	note.Lines[field] = value
	note.Modified = true
}

// HasUnsavedChanges reports whether any cached entry differs from its last
// known-persisted state.
func (e *Engine) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.days {
		if entry.Modified {
			return true
		}
	}
	for _, note := range e.notes {
		if note.Modified {
			return true
		}
	}
	return false
}

// Days returns a snapshot of the cached day entries, sorted by key.
func (e *Engine) Days() []schedule.DayEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]schedule.DayEntry, 0, len(e.days))
	for _, entry := range e.days {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Before(out[j].Key) })
	return out
}

// Day returns a snapshot of one day entry.
func (e *Engine) Day(key schedule.DayKey) (schedule.DayEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.days[key]
	if !ok {
		return schedule.DayEntry{}, false
	}
	return *entry, true
}

// Notes returns a snapshot of the cached month notes, sorted by key.
func (e *Engine) Notes() []schedule.MonthNote {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]schedule.MonthNote, 0, len(e.notes))
	for _, note := range e.notes {
		out = append(out, *note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Before(out[j].Key) })
	return out
}

// Note returns a snapshot of one month note.
func (e *Engine) Note(key schedule.MonthKey) (schedule.MonthNote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	note, ok := e.notes[key]
	if !ok {
		return schedule.MonthNote{}, false
	}
	return *note, true
}

// AccountStatus reports the store's account standing.
func (e *Engine) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	return e.store.AccountStatus(ctx)
}

// CreateShare creates a share handle for the rota zone.
func (e *Engine) CreateShare(ctx context.Context) (remote.ShareHandle, error) {
	zone, err := e.ensureZone(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to ensure zone: %w", err)
	}
	handle, err := e.store.CreateShare(ctx, zone)
	if err != nil {
		return "", fmt.Errorf("failed to create share: %w", err)
	}
	return handle, nil
}

// ensureZone returns the cached zone identifier, asking the store to
// create it on first use.
func (e *Engine) ensureZone(ctx context.Context) (string, error) {
	e.mu.Lock()
	zone := e.zone
	e.mu.Unlock()
	if zone != "" {
		return zone, nil
	}

	zone, err := e.store.EnsureZone(ctx)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.zone = zone
	e.mu.Unlock()
	return zone, nil
}

// dayListLocked returns the cached day entries. Caller holds mu.
func (e *Engine) dayListLocked() []*schedule.DayEntry {
	out := make([]*schedule.DayEntry, 0, len(e.days))
	for _, entry := range e.days {
		out = append(out, entry)
	}
	return out
}

// noteListLocked returns the cached month notes. Caller holds mu.
func (e *Engine) noteListLocked() []*schedule.MonthNote {
	out := make([]*schedule.MonthNote, 0, len(e.notes))
	for _, note := range e.notes {
		out = append(out, note)
	}
	return out
}

// hasModifiedDaysLocked reports whether any day entry is modified. Caller
// holds mu.
func (e *Engine) hasModifiedDaysLocked() bool {
	for _, entry := range e.days {
		if entry.Modified {
			return true
		}
	}
	return false
}

// hasModifiedNotesLocked reports whether any month note is modified.
// Caller holds mu.
func (e *Engine) hasModifiedNotesLocked() bool {
	for _, note := range e.notes {
		if note.Modified {
			return true
		}
	}
	return false
}

// recordToDay converts a remote day record into a cache entry.
func recordToDay(rec remote.Record) *schedule.DayEntry {
	entry := &schedule.DayEntry{
		Key:      rec.Day,
		RemoteID: rec.ID,
		Zone:     rec.Zone,
		ModTime:  rec.ModTime,
	}
	for i := 0; i < len(rec.Lines) && i < int(schedule.NumDayFields); i++ {
		entry.Lines[i] = rec.Lines[i]
	}
	return entry
}

// recordToNote converts a remote note record into a cache entry.
func recordToNote(rec remote.Record) *schedule.MonthNote {
	note := &schedule.MonthNote{
		Key:      rec.Month,
		RemoteID: rec.ID,
		Zone:     rec.Zone,
		ModTime:  rec.ModTime,
	}
	for i := 0; i < len(rec.Lines) && i < int(schedule.NumNoteFields); i++ {
		note.Lines[i] = rec.Lines[i]
	}
	return note
}
