package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"remold-hq/remold/pkg/audit"
)

// MemoryStorage is an in-memory audit.Storage for tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*audit.ChangeRecord
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store persists one record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// Query returns records matching the query, newest first.
func (s *MemoryStorage) Query(ctx context.Context, q *audit.Query) ([]*audit.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.ChangeRecord
	for _, rec := range s.records {
		if !matches(rec, q) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedTime.After(out[j].RecordedTime)
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}

	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// Count returns the total number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore removes records recorded before the cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.RecordedTime.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// DeleteOldest removes the oldest n records.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.Slice(s.records, func(i, j int) bool {
		return s.records[i].RecordedTime.Before(s.records[j].RecordedTime)
	})

	if n > int64(len(s.records)) {
		n = int64(len(s.records))
	}
	s.records = s.records[n:]
	return n, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(rec *audit.ChangeRecord, q *audit.Query) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.Phase != "" && rec.Phase != q.Phase {
		return false
	}
	if q.Field != "" && rec.Field != q.Field {
		return false
	}
	if q.Op != "" && rec.Op != q.Op {
		return false
	}
	if q.StartTime != nil && rec.RecordedTime.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && rec.RecordedTime.After(*q.EndTime) {
		return false
	}
	return true
}
