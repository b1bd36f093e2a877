package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rotacal/rotacal/internal/remote"
)

// fakeStore is an in-memory remote.Store with scriptable failures and
// call counters.
type fakeStore struct {
	mu sync.Mutex

	records map[string]remote.Record
	nextID  int
	nextMod time.Time

	// Scripted failures: the first N calls of an operation fail with the
	// paired error, then calls succeed.
	ensureZoneFailures int
	ensureZoneErr      error
	queryFailures      int
	queryErr           error
	createFailures     int
	createErr          error
	updateFailures     int
	updateErr          error
	deleteFailures     int
	deleteErr          error

	ensureZoneCalls int
	queryCalls      int
	createCalls     int
	updateCalls     int
	deleteCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]remote.Record),
		nextMod: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seed inserts a record directly, bypassing the Store interface.
func (f *fakeStore) seed(rec remote.Record) remote.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.ID == "" {
		f.nextID++
		rec.ID = fmt.Sprintf("rec-%03d", f.nextID)
	}
	if rec.Zone == "" {
		rec.Zone = "rota"
	}
	if rec.ModTime.IsZero() {
		f.nextMod = f.nextMod.Add(time.Second)
		rec.ModTime = f.nextMod
	}
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeStore) EnsureZone(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ensureZoneCalls++
	if f.ensureZoneFailures > 0 {
		f.ensureZoneFailures--
		return "", f.ensureZoneErr
	}
	return "rota", nil
}

func (f *fakeStore) Query(ctx context.Context, kind remote.Kind, q remote.Query, zone string) ([]remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queryCalls++
	if f.queryFailures > 0 {
		f.queryFailures--
		return nil, f.queryErr
	}

	var out []remote.Record
	for _, rec := range f.records {
		if rec.Kind != kind || rec.Zone != zone {
			continue
		}
		if kind == remote.KindDay && !q.Day.IsZero() && rec.Day != q.Day {
			continue
		}
		if kind == remote.KindNote && !q.Month.IsZero() && rec.Month != q.Month {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if kind == remote.KindDay {
			if out[i].Day != out[j].Day {
				return out[i].Day.Before(out[j].Day)
			}
		} else if out[i].Month != out[j].Month {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, rec remote.Record, zone string) (remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createFailures > 0 {
		f.createFailures--
		return remote.Record{}, f.createErr
	}

	f.nextID++
	rec.ID = fmt.Sprintf("rec-%03d", f.nextID)
	rec.Zone = zone
	f.nextMod = f.nextMod.Add(time.Second)
	rec.ModTime = f.nextMod
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) Update(ctx context.Context, rec remote.Record) (remote.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++
	if f.updateFailures > 0 {
		f.updateFailures--
		return remote.Record{}, f.updateErr
	}

	stored, ok := f.records[rec.ID]
	if !ok {
		return remote.Record{}, remote.NewError(remote.CodeUnknownItem, "update",
			fmt.Errorf("record %s not found", rec.ID))
	}
	stored.Lines = rec.Lines
	f.nextMod = f.nextMod.Add(time.Second)
	stored.ModTime = f.nextMod
	f.records[rec.ID] = stored
	return stored, nil
}

func (f *fakeStore) Delete(ctx context.Context, id, zone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	if f.deleteFailures > 0 {
		f.deleteFailures--
		return f.deleteErr
	}

	if _, ok := f.records[id]; !ok {
		return remote.NewError(remote.CodeUnknownItem, "delete",
			fmt.Errorf("record %s not found", id))
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	return remote.AccountAvailable, nil
}

func (f *fakeStore) CreateShare(ctx context.Context, zone string) (remote.ShareHandle, error) {
	return remote.ShareHandle("rotacal://share/" + zone + "/test"), nil
}

// has reports whether a record with the given ID is still stored.
func (f *fakeStore) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.records[id]
	return ok
}

// count returns the number of stored records of a kind.
func (f *fakeStore) count(kind remote.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, rec := range f.records {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}
