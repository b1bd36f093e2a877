package engine

import (
	"context"
	"fmt"

	"github.com/rotacal/rotacal/internal/remote"
	"github.com/rotacal/rotacal/internal/schedule"
)

// saveAction is the outcome of the save decision.
type saveAction int

const (
	// actionNone means nothing to do: no content and nothing persisted.
	actionNone saveAction = iota
	// actionUpsert means create or update the remote record.
	actionUpsert
	// actionDelete means remove the persisted remote record.
	actionDelete
)

// String returns a human-readable name for the action.
func (a saveAction) String() string {
	switch a {
	case actionNone:
		return "none"
	case actionUpsert:
		return "upsert"
	case actionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// decideSave selects exactly one action from the (allEmpty, hasRef) pair.
// It is a pure function: all empty with a persisted record means delete,
// any content means upsert, all empty with nothing persisted means no-op.
func decideSave(allEmpty, hasRef bool) saveAction {
	switch {
	case allEmpty && hasRef:
		return actionDelete
	case !allEmpty:
		return actionUpsert
	default:
		return actionNone
	}
}

// SaveDay persists one day's lines, choosing between create, update,
// delete and no-op from the current state.
//
// The decision is re-evaluated on every retry rather than blindly
// replayed, because the remote and cached state may have changed between
// attempts. Transient store errors are retried up to the configured
// attempt bound; terminal errors and exhausted retries are reported to the
// caller with a machine-distinguishable cause (remote.ErrorCode).
func (e *Engine) SaveDay(ctx context.Context, key schedule.DayKey, lines [schedule.NumDayFields]string) error {
	trackerKey := key.String()
	allEmpty := true
	for _, line := range lines {
		if line != "" {
			allEmpty = false
			break
		}
	}

	kind := OpSave
	success := false
	e.tracker.Begin(trackerKey, kind)
	defer func() {
		e.tracker.Complete(trackerKey, kind, success)
	}()

	var lastErr error
	for attempt := 1; attempt <= e.config.SaveAttempts; attempt++ {
		e.mu.Lock()
		existingID, zone := "", e.zone
		if entry, ok := e.days[key]; ok {
			existingID = entry.RemoteID
			if entry.Zone != "" {
				zone = entry.Zone
			}
		}
		e.mu.Unlock()

		action := decideSave(allEmpty, existingID != "")
		switch action {
		case actionNone:
			success = true
			return nil

		case actionUpsert:
			lastErr = e.upsertDay(ctx, key, lines)
			if lastErr == nil {
				success = true
				e.notify(EventSaved, trackerKey, "")
				return nil
			}

		case actionDelete:
			kind = OpDelete
			lastErr = e.deleteDay(ctx, key, existingID, zone)
			if lastErr == nil {
				success = true
				e.notify(EventDeleted, trackerKey, "")
				return nil
			}
		}

		e.logger.Printf("Save %s attempt %d/%d failed (%s): %v",
			key, attempt, e.config.SaveAttempts, action, lastErr)

		if !remote.Transient(lastErr) {
			break
		}
	}

	e.notify(EventSyncError, trackerKey, lastErr.Error())
	return fmt.Errorf("failed to save %s: %w", key, lastErr)
}

// upsertDay creates or updates the remote record for key.
//
// The store is re-queried for the key even when the cache holds a remote
// ID: the cached reference may be stale if another device replaced the
// record, and a stale reference must heal into "create new" rather than
// fail hard. If the query turns up duplicates, the first is updated and
// the rest are deleted best-effort.
func (e *Engine) upsertDay(ctx context.Context, key schedule.DayKey, lines [schedule.NumDayFields]string) error {
	zone, err := e.ensureZone(ctx)
	if err != nil {
		return err
	}

	recs, err := e.store.Query(ctx, remote.KindDay, remote.Query{Day: key}, zone)
	if err != nil {
		return err
	}

	var stored remote.Record
	if len(recs) == 0 {
		stored, err = e.store.Create(ctx, remote.Record{
			Kind:  remote.KindDay,
			Day:   key,
			Lines: append([]string(nil), lines[:]...),
		}, zone)
		if err != nil {
			return err
		}
	} else {
		target := recs[0]
		target.Lines = append([]string(nil), lines[:]...)
		stored, err = e.store.Update(ctx, target)
		if err != nil {
			return err
		}
		for _, dup := range recs[1:] {
			if err := e.store.Delete(ctx, dup.ID, dup.Zone); err != nil {
				e.logger.Printf("Warning: failed to delete duplicate record %s: %v", dup.ID, err)
			}
		}
	}

	if stored.Zone == "" {
		stored.Zone = zone
	}

	e.mu.Lock()
	e.days[key] = &schedule.DayEntry{
		Key:      key,
		RemoteID: stored.ID,
		Zone:     stored.Zone,
		Lines:    lines,
		ModTime:  stored.ModTime,
	}
	e.mu.Unlock()
	return nil
}

// deleteDay removes the remote record and the cached entry for key.
//
// A record that is already gone counts as a successful delete. The cache
// is keyed by logical key, so removing the map entry also guarantees no
// stale duplicate for the key can linger locally.
func (e *Engine) deleteDay(ctx context.Context, key schedule.DayKey, existingID, zone string) error {
	if zone == "" {
		z, err := e.ensureZone(ctx)
		if err != nil {
			return err
		}
		zone = z
	}

	if err := e.store.Delete(ctx, existingID, zone); err != nil {
		if remote.ErrorCode(err) != remote.CodeUnknownItem {
			return err
		}
	}

	e.mu.Lock()
	delete(e.days, key)
	e.mu.Unlock()
	return nil
}

// SaveNote persists one month's note lines. It is the month-note twin of
// SaveDay with the same decision, retry and reporting behavior.
func (e *Engine) SaveNote(ctx context.Context, key schedule.MonthKey, lines [schedule.NumNoteFields]string) error {
	trackerKey := key.String()
	allEmpty := true
	for _, line := range lines {
		if line != "" {
			allEmpty = false
			break
		}
	}

	kind := OpSave
	success := false
	e.tracker.Begin(trackerKey, kind)
	defer func() {
		e.tracker.Complete(trackerKey, kind, success)
	}()

	var lastErr error
	for attempt := 1; attempt <= e.config.SaveAttempts; attempt++ {
		e.mu.Lock()
		existingID, zone := "", e.zone
		if note, ok := e.notes[key]; ok {
			existingID = note.RemoteID
			if note.Zone != "" {
				zone = note.Zone
			}
		}
		e.mu.Unlock()

		action := decideSave(allEmpty, existingID != "")
		switch action {
		case actionNone:
			success = true
			return nil

		case actionUpsert:
			lastErr = e.upsertNote(ctx, key, lines)
			if lastErr == nil {
				success = true
				e.notify(EventSaved, trackerKey, "")
				return nil
			}

		case actionDelete:
			kind = OpDelete
			lastErr = e.deleteNote(ctx, key, existingID, zone)
			if lastErr == nil {
				success = true
				e.notify(EventDeleted, trackerKey, "")
				return nil
			}
		}

		e.logger.Printf("Save %s attempt %d/%d failed (%s): %v",
			key, attempt, e.config.SaveAttempts, action, lastErr)

		if !remote.Transient(lastErr) {
			break
		}
	}

	e.notify(EventSyncError, trackerKey, lastErr.Error())
	return fmt.Errorf("failed to save %s: %w", key, lastErr)
}

// upsertNote creates or updates the remote record for a month note, with
// the same stale-reference healing as upsertDay.
func (e *Engine) upsertNote(ctx context.Context, key schedule.MonthKey, lines [schedule.NumNoteFields]string) error {
	zone, err := e.ensureZone(ctx)
	if err != nil {
		return err
	}

	recs, err := e.store.Query(ctx, remote.KindNote, remote.Query{Month: key}, zone)
	if err != nil {
		return err
	}

	var stored remote.Record
	if len(recs) == 0 {
		stored, err = e.store.Create(ctx, remote.Record{
			Kind:  remote.KindNote,
			Month: key,
			Lines: append([]string(nil), lines[:]...),
		}, zone)
		if err != nil {
			return err
		}
	} else {
		target := recs[0]
		target.Lines = append([]string(nil), lines[:]...)
		stored, err = e.store.Update(ctx, target)
		if err != nil {
			return err
		}
		for _, dup := range recs[1:] {
			if err := e.store.Delete(ctx, dup.ID, dup.Zone); err != nil {
				e.logger.Printf("Warning: failed to delete duplicate record %s: %v", dup.ID, err)
			}
		}
	}

	if stored.Zone == "" {
		stored.Zone = zone
	}

	e.mu.Lock()
	e.notes[key] = &schedule.MonthNote{
		Key:      key,
		RemoteID: stored.ID,
		Zone:     stored.Zone,
		Lines:    lines,
		ModTime:  stored.ModTime,
	}
	e.mu.Unlock()
	return nil
}

// deleteNote removes the remote record and the cached note for key.
func (e *Engine) deleteNote(ctx context.Context, key schedule.MonthKey, existingID, zone string) error {
	if zone == "" {
		z, err := e.ensureZone(ctx)
		if err != nil {
			return err
		}
		zone = z
	}

	if err := e.store.Delete(ctx, existingID, zone); err != nil {
		if remote.ErrorCode(err) != remote.CodeUnknownItem {
			return err
		}
	}

	e.mu.Lock()
	delete(e.notes, key)
	e.mu.Unlock()
	return nil
}
