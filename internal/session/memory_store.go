package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps sessions in process memory. Records are copied on the way
// in and out so callers never share a ConversationState.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, callID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[callID]
	if !ok {
		return nil, ErrCallNotFound
	}
	return rec.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.CallID] = rec.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, callID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
