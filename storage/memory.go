package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory. Used in tests and when no database
// path is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []BestRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) SaveBest(ctx context.Context, rec BestRecord) error {
	// Round-trip through the codec so version stamping matches the
	// sqlite store.
	data, err := EncodeBest(rec)
	if err != nil {
		return err
	}
	decoded, err := DecodeBest(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, decoded)
	return nil
}

func (s *MemoryStore) LatestBest(ctx context.Context) (BestRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return BestRecord{}, false, nil
	}
	return s.records[len(s.records)-1], true, nil
}

func (s *MemoryStore) ListBest(ctx context.Context, limit int) ([]BestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}

	// Newest first.
	out := make([]BestRecord, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
