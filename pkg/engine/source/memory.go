package source

import (
	"context"
	"sync"

	"remold-hq/remold/pkg/rules"
)

// MemorySource is an in-memory rule source, mainly for tests.
type MemorySource struct {
	mu sync.RWMutex
	rs []rules.Rule
}

// NewMemorySource creates an in-memory rule source.
func NewMemorySource(rs []rules.Rule) *MemorySource {
	return &MemorySource{rs: rs}
}

// Load returns a copy of the stored rules.
func (s *MemorySource) Load(ctx context.Context) ([]rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rules.Rule, len(s.rs))
	copy(out, s.rs)
	return out, nil
}

// Watch returns a channel that never emits and closes with the context.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	eventCh := make(chan Event)
	go func() {
		<-ctx.Done()
		close(eventCh)
	}()
	return eventCh, nil
}

// SetRules replaces the stored rules.
func (s *MemorySource) SetRules(rs []rules.Rule) {
	s.mu.Lock()
	s.rs = rs
	s.mu.Unlock()
}
