package divcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleMap() *divisions.DivisionMap {
	return divisions.NewDivisionMap(divisions.MethodTOC, []divisions.DivisionEntry{
		{Code: "04", Title: "MASONRY", StartPage: 45, EndPage: 79},
		{Code: "09", Title: "FINISHES", StartPage: 80, EndPage: 100},
	}, 2, "")
}

func countingCompute(calls *int64) ComputeFunc {
	return func(ctx context.Context) (*divisions.DivisionMap, int, error) {
		atomic.AddInt64(calls, 1)
		return sampleMap(), 100, nil
	}
}

func TestCache_GetOrComputeIdempotent(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	var calls int64

	m1, err := cache.GetOrCompute(context.Background(), "hash-a", countingCompute(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m2, err := cache.GetOrCompute(context.Background(), "hash-a", countingCompute(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 computation, got %d", calls)
	}
	if m1.Len() != m2.Len() || m1.Method != m2.Method {
		t.Errorf("expected identical maps, got %d/%s and %d/%s",
			m1.Len(), m1.Method, m2.Len(), m2.Method)
	}
	e1, _ := m1.Lookup("04")
	e2, _ := m2.Lookup("04")
	if e1 != e2 {
		t.Errorf("expected identical entries, got %+v and %+v", e1, e2)
	}
}

func TestCache_SingleFlightConcurrent(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	var calls int64

	slowCompute := func(ctx context.Context) (*divisions.DivisionMap, int, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return sampleMap(), 100, nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]*divisions.DivisionMap, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrCompute(context.Background(), "hash-b", slowCompute)
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected exactly 1 computation for %d concurrent callers, got %d", n, calls)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] == nil || results[i].Len() != 2 {
			t.Errorf("caller %d: expected 2 entries, got %v", i, results[i])
		}
	}
}

func TestCache_DistinctHashesComputeIndependently(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	var calls int64

	if _, err := cache.GetOrCompute(context.Background(), "hash-1", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.GetOrCompute(context.Background(), "hash-2", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 computations for 2 hashes, got %d", calls)
	}
}

func TestCache_EmptyHashRejected(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	var calls int64
	if _, err := cache.GetOrCompute(context.Background(), "", countingCompute(&calls)); err == nil {
		t.Error("expected error for empty hash")
	}
	if calls != 0 {
		t.Errorf("expected no computation, got %d", calls)
	}
}

func TestCache_ComputeErrorPropagates(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	wantErr := errors.New("detector blew up")

	_, err := cache.GetOrCompute(context.Background(), "hash-c",
		func(ctx context.Context) (*divisions.DivisionMap, int, error) {
			return nil, 0, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected compute error, got %v", err)
	}

	// The failure must not poison the hash: a later call recomputes.
	var calls int64
	if _, err := cache.GetOrCompute(context.Background(), "hash-c", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error after failed compute: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected recomputation after failure, got %d calls", calls)
	}
}

// failingSaveStore simulates a storage outage on writes.
type failingSaveStore struct {
	*MemoryStore
	saveErr error
}

func (s *failingSaveStore) Save(ctx context.Context, rec *CacheRecord) error {
	return s.saveErr
}

func TestCache_SaveOutageReturnsFreshMapAndError(t *testing.T) {
	outage := errors.New("connection refused")
	store := &failingSaveStore{MemoryStore: NewMemoryStore(), saveErr: outage}
	cache := New(store, testLogger())
	var calls int64

	m, err := cache.GetOrCompute(context.Background(), "hash-d", countingCompute(&calls))
	if !errors.Is(err, outage) {
		t.Errorf("expected storage outage surfaced, got %v", err)
	}
	if m == nil || m.Len() != 2 {
		t.Errorf("expected fresh map despite outage, got %v", m)
	}
}

func TestCache_TouchUpdatesAccessMetadata(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store, testLogger())
	var calls int64

	ctx := context.Background()
	if _, err := cache.GetOrCompute(ctx, "hash-e", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.GetOrCompute(ctx, "hash-e", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.GetOrCompute(ctx, "hash-e", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := store.Load(ctx, "hash-e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First call stores with count 1; two hits touch it twice.
	if rec.AccessCount != 3 {
		t.Errorf("expected access count 3, got %d", rec.AccessCount)
	}
}

func TestCache_SweepEvictsOldUnpopularOnly(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store, testLogger())
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	records := []*CacheRecord{
		{DocumentHash: "old-rare", DivisionMap: sampleMap(), TotalPages: 100, CachedAt: old, LastAccessed: old, AccessCount: 1},
		{DocumentHash: "old-popular", DivisionMap: sampleMap(), TotalPages: 100, CachedAt: old, LastAccessed: old, AccessCount: 500},
		{DocumentHash: "fresh-rare", DivisionMap: sampleMap(), TotalPages: 100, CachedAt: time.Now(), LastAccessed: time.Now(), AccessCount: 1},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	evicted := cache.Sweep(ctx, 24*time.Hour, 10)
	if evicted != 1 {
		t.Errorf("expected 1 eviction, got %d", evicted)
	}

	if rec, _ := store.Load(ctx, "old-rare"); rec != nil {
		t.Error("expected old, rarely accessed record evicted")
	}
	if rec, _ := store.Load(ctx, "old-popular"); rec == nil {
		t.Error("expected old but popular record retained")
	}
	if rec, _ := store.Load(ctx, "fresh-rare"); rec == nil {
		t.Error("expected fresh record retained")
	}
}

func TestCache_StatsCountHitsAndMisses(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	ctx := context.Background()
	var calls int64

	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrCompute(ctx, "hash-s", countingCompute(&calls)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats := cache.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
}

func TestCache_InvalidateForcesRecompute(t *testing.T) {
	cache := New(NewMemoryStore(), testLogger())
	ctx := context.Background()
	var calls int64

	if _, err := cache.GetOrCompute(ctx, "hash-f", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Invalidate(ctx, "hash-f"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.GetOrCompute(ctx, "hash-f", countingCompute(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected recomputation after invalidate, got %d calls", calls)
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := &CacheRecord{
		DocumentHash: "hash-g", DivisionMap: sampleMap(), TotalPages: 100,
		CachedAt: time.Now(), LastAccessed: time.Now(), AccessCount: 1,
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Load(ctx, "hash-g")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.DivisionMap.Entries[0].Title = "mutated"

	again, _ := store.Load(ctx, "hash-g")
	if again.DivisionMap.Entries[0].Title == "mutated" {
		t.Error("expected store to hand out copies, not shared state")
	}
}
