package contacts

import (
	"context"
	"sync"

	"github.com/ignite/campus-outreach/internal/domain"
)

// MemoryStore keeps contacts in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Contact
}

// NewMemoryStore returns a store seeded with the given contacts.
func NewMemoryStore(seed ...domain.Contact) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]*domain.Contact)}
	for i := range seed {
		c := seed[i]
		_ = s.Create(context.Background(), &c)
	}
	return s
}

func (s *MemoryStore) Lookup(_ context.Context, id string) (Existence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; ok {
		return Present, nil
	}
	return Absent, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, c *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; ok {
		return ErrAlreadyExists
	}
	s.byID[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, ch Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if ch.IfStep != nil && c.SequenceStep != *ch.IfStep {
		return ErrConflict
	}
	ch.Apply(c)
	return nil
}

func (s *MemoryStore) Scan(_ context.Context) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contact, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id].Clone())
	}
	return out, nil
}

// Len returns the number of stored contacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
