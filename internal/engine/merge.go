package engine

import (
	"sort"

	"github.com/rotacal/rotacal/internal/schedule"
)

// mergeDays combines a freshly fetched, already deduplicated remote
// baseline with the current local day entries.
//
// Rules, in order, for every local entry with Modified set:
//  1. If the tracker remembers a recent deletion of the key, the entry is
//     dropped. A deletion the user just performed must not be undone by a
//     slow-to-catch-up fetch returning the pre-deletion state.
//  2. If the baseline holds an entry for the same key, the local version
//     replaces it. An unsaved edit always wins over remote state.
//  3. Otherwise the local entry is appended (new, not yet saved).
//
// Unmodified local entries are superseded by the baseline. The result is
// sorted by key ascending.
func mergeDays(baseline []*schedule.DayEntry, local []*schedule.DayEntry, tracker *Tracker) []*schedule.DayEntry {
	merged := make(map[schedule.DayKey]*schedule.DayEntry, len(baseline))
	for _, entry := range baseline {
		// The store may still be returning the pre-deletion state.
		if tracker.RecentlyDeleted(entry.Key.String()) {
			continue
		}
		merged[entry.Key] = entry
	}

	for _, entry := range local {
		if !entry.Modified {
			continue
		}
		if tracker.RecentlyDeleted(entry.Key.String()) {
			continue
		}
		merged[entry.Key] = entry
	}

	result := make([]*schedule.DayEntry, 0, len(merged))
	for _, entry := range merged {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.Before(result[j].Key)
	})
	return result
}

// mergeNotes is the month-note twin of mergeDays.
func mergeNotes(baseline []*schedule.MonthNote, local []*schedule.MonthNote, tracker *Tracker) []*schedule.MonthNote {
	merged := make(map[schedule.MonthKey]*schedule.MonthNote, len(baseline))
	for _, note := range baseline {
		if tracker.RecentlyDeleted(note.Key.String()) {
			continue
		}
		merged[note.Key] = note
	}

	for _, note := range local {
		if !note.Modified {
			continue
		}
		if tracker.RecentlyDeleted(note.Key.String()) {
			continue
		}
		merged[note.Key] = note
	}

	result := make([]*schedule.MonthNote, 0, len(merged))
	for _, note := range merged {
		result = append(result, note)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.Before(result[j].Key)
	})
	return result
}
