package storage

import (
	"context"
	"sync"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// MemoryStore keeps records in process, ordered by first insertion per category.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[domain.Category]*bucket
}

type bucket struct {
	order []string
	items map[string]domain.Record
}

var _ ports.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: map[domain.Category]*bucket{}}
}

// Write upserts the record; a rewrite keeps the original position.
func (s *MemoryStore) Write(_ context.Context, record domain.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.Metadata = record.Metadata.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[record.Category]
	if !ok {
		b = &bucket{items: map[string]domain.Record{}}
		s.buckets[record.Category] = b
	}
	if _, exists := b.items[record.ID]; !exists {
		b.order = append(b.order, record.ID)
	}
	b.items[record.ID] = record
	return nil
}

// ReadAll returns copies of every record in the category.
func (s *MemoryStore) ReadAll(_ context.Context, category domain.Category) ([]domain.Record, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[category]
	if !ok {
		return []domain.Record{}, nil
	}
	out := make([]domain.Record, 0, len(b.order))
	for _, id := range b.order {
		rec := b.items[id]
		rec.Metadata = rec.Metadata.Clone()
		out = append(out, rec)
	}
	return out, nil
}

// Count reports the number of records in the category.
func (s *MemoryStore) Count(_ context.Context, category domain.Category) (int, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.buckets[category]; ok {
		return len(b.order), nil
	}
	return 0, nil
}
