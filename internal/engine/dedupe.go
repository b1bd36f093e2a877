package engine

import (
	"sort"

	"github.com/rotacal/rotacal/internal/remote"
)

// dedupeRecords collapses remote records that share a logical key into one
// record per key.
//
// The survivor of each group is chosen by completeness score (count of
// non-empty lines); ties go to the newest server modification time, and a
// further tie to the lowest record ID, so the outcome is deterministic
// regardless of query iteration order.
//
// The kept records are returned sorted by logical key ascending. The
// losers are duplicate records that should be deleted from the remote
// store as house-keeping; that deletion is best-effort and not required
// for the correctness of the local view.
func dedupeRecords(records []remote.Record, keyOf func(remote.Record) string) (kept, losers []remote.Record) {
	best := make(map[string]remote.Record)
	for _, rec := range records {
		key := keyOf(rec)
		current, ok := best[key]
		if !ok {
			best[key] = rec
			continue
		}
		if betterRecord(rec, current) {
			losers = append(losers, current)
			best[key] = rec
		} else {
			losers = append(losers, rec)
		}
	}

	kept = make([]remote.Record, 0, len(best))
	for _, rec := range best {
		kept = append(kept, rec)
	}
	sort.Slice(kept, func(i, j int) bool {
		return keyOf(kept[i]) < keyOf(kept[j])
	})
	return kept, losers
}

// betterRecord reports whether a should survive deduplication over b.
func betterRecord(a, b remote.Record) bool {
	sa, sb := recordCompleteness(a), recordCompleteness(b)
	if sa != sb {
		return sa > sb
	}
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.ID < b.ID
}

// recordCompleteness counts the non-empty lines of a record.
func recordCompleteness(rec remote.Record) int {
	n := 0
	for _, line := range rec.Lines {
		if line != "" {
			n++
		}
	}
	return n
}

// dayRecordKey returns the canonical logical key of a day record.
func dayRecordKey(rec remote.Record) string {
	return rec.Day.String()
}

// noteRecordKey returns the canonical logical key of a note record.
func noteRecordKey(rec remote.Record) string {
	return rec.Month.String()
}
