package divcache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default Store: a mutex-guarded map. Suitable for a
// single instance; use PostgresStore when resolutions must survive
// restarts or be shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*CacheRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*CacheRecord)}
}

func (s *MemoryStore) Load(_ context.Context, hash string) (*CacheRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, nil
	}
	return rec.copy(), nil
}

func (s *MemoryStore) Save(_ context.Context, rec *CacheRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.DocumentHash] = rec.copy()
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[hash]; ok {
		rec.LastAccessed = at
		rec.AccessCount++
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, hash)
	return nil
}

// Evict removes records last accessed before olderThan whose access count
// is below maxAccessCount. Old but frequently read records stay.
func (s *MemoryStore) Evict(_ context.Context, olderThan time.Time, maxAccessCount int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for hash, rec := range s.records {
		if rec.LastAccessed.Before(olderThan) && rec.AccessCount < maxAccessCount {
			delete(s.records, hash)
			n++
		}
	}
	return n, nil
}

// Len reports the number of cached records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
