package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codrutul/roster/internal/domain/model"
)

const backendMemory = "memory"

// MemoryStore keeps the roster in process memory.
type MemoryStore struct {
	settings

	mu       sync.RWMutex
	chars    []model.Character
	index    map[string]int
	sessions map[string]model.GameSession
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings: newSettings(opts),
		index:    make(map[string]int),
		sessions: make(map[string]model.GameSession),
	}
}

// Name returns the backend name.
func (s *MemoryStore) Name() string { return backendMemory }

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, in model.CharacterInput) (model.Character, error) {
	start := time.Now()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, dup := s.index[id]; dup {
		err := fmt.Errorf("create: duplicate id %s: %w", id, ErrBackend)
		observe(backendMemory, "create", start, err)
		return model.Character{}, err
	}
	c := model.Character{ID: id, CharacterInput: in, CreatedAt: now, UpdatedAt: now}
	s.index[id] = len(s.chars)
	s.chars = append(s.chars, c)

	observe(backendMemory, "create", start, nil)
	return c, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]model.Character, error) {
	start := time.Now()
	s.mu.RLock()
	out := make([]model.Character, len(s.chars))
	copy(out, s.chars)
	s.mu.RUnlock()

	observe(backendMemory, "list", start, nil)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Character{}, fmt.Errorf("get character %s: %w", id, ErrNotFound)
	}
	return s.chars[i], nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, in model.CharacterInput) (model.Character, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		err := fmt.Errorf("update character %s: %w", id, ErrNotFound)
		observe(backendMemory, "update", start, err)
		return model.Character{}, err
	}
	c := &s.chars[i]
	c.CharacterInput = in
	c.UpdatedAt = s.now()

	observe(backendMemory, "update", start, nil)
	return *c, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		err := fmt.Errorf("delete character %s: %w", id, ErrNotFound)
		observe(backendMemory, "delete", start, err)
		return err
	}
	s.chars = append(s.chars[:i], s.chars[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.chars); j++ {
		s.index[s.chars[j].ID] = j
	}

	observe(backendMemory, "delete", start, nil)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chars), nil
}

// CreateSession implements SessionStore.
func (s *MemoryStore) CreateSession(_ context.Context, gs model.GameSession) (model.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gs.ID = s.newID()
	gs.CreatedAt = s.now()
	s.sessions[gs.ID] = gs
	return gs, nil
}

// GetSession implements SessionStore.
func (s *MemoryStore) GetSession(_ context.Context, id string) (model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.sessions[id]
	if !ok {
		return model.GameSession{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	return gs, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
