// Package engine implements the reconciliation engine that keeps the local
// rota cache synchronized with the remote record store.
//
// # Overview
//
// The engine owns the only mutable copy of the rota: a keyed cache of day
// entries and month notes. Every fetch merges the remote snapshot into that
// cache without losing unsaved local edits, and every save pushes one
// logical key through a find-or-create-or-update-or-delete decision with
// bounded retry.
//
// # Architecture
//
//	Presentation layer (CLI, dashboard clients)
//	        │ FetchAll / SaveDay / SaveNote / UpdateField
//	        ▼
//	     Engine ──── SessionGuard  (active edits suppress refreshes)
//	        │   └─── Tracker       (protection window over recent ops)
//	        ▼
//	 dedupe → merge → LocalCache  (keyed maps, single owner)
//	        │
//	        ▼
//	   remote.Store (SQLite backend, cloud client, test fakes)
//
// # Concurrency
//
// The engine is logically single-writer. One mutex serializes every
// mutation of the cache, and the in-memory phases (dedupe, merge, save
// decisions) run to completion under it. Only remote store calls suspend,
// and they always run outside the lock, so a fetch that lands milliseconds
// after a save cannot interleave mid-merge. Ordering between a fetch and a
// save is NOT guaranteed by locking: the Tracker's time-boxed protection
// window is the sole mechanism that keeps a late-arriving fetch from
// undoing a just-completed save or delete. This is a deliberate best-effort
// debounce; the UI is the only local writer, which keeps it sound.
//
// # Usage
//
//	store, err := sqlitestore.Open(".rotacal/rotacal.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	eng, err := engine.New(store)
//	if err != nil {
//	    return err
//	}
//
//	if err := eng.FetchAll(ctx); err != nil {
//	    return err
//	}
//
//	key := schedule.NewDayKey(time.Now())
//	eng.UpdateField(key, schedule.FieldFirstOn, "DR.SMITH")
//	if entry, ok := eng.Day(key); ok {
//	    if err := eng.SaveDay(ctx, key, entry.Lines); err != nil {
//	        return err
//	    }
//	}
package engine
