package eventstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]Record)}
}

func (s *MemoryStore) Append(_ context.Context, aggregateID string, expectedVersion int, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[aggregateID]
	if len(stream) != expectedVersion {
		return fmt.Errorf("%w: aggregate %s expected version %d, have %d", ErrVersionConflict, aggregateID, expectedVersion, len(stream))
	}
	version := expectedVersion
	for _, r := range records {
		version++
		r.AggregateID = aggregateID
		r.Version = version
		stream = append(stream, r)
	}
	s.streams[aggregateID] = stream
	return nil
}

func (s *MemoryStore) Load(_ context.Context, aggregateID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream, ok := s.streams[aggregateID]
	if !ok || len(stream) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEvents, aggregateID)
	}
	out := make([]Record, len(stream))
	copy(out, stream)
	return out, nil
}
