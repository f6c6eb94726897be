package progress

import (
	"context"
	"sync"

	"github.com/hpx/cull/internal/errors"
)

// MemoryStore is an in-process Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionProgress
	latest   string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*SessionProgress)}
}

// Load returns the most recently saved session.
func (s *MemoryStore) Load(ctx context.Context) (*SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.sessions[s.latest]
	if !ok {
		return nil, errors.NewNotFound("session progress")
	}
	cp := *p
	return &cp, nil
}

// Save upserts the session record.
func (s *MemoryStore) Save(ctx context.Context, p *SessionProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.sessions[p.ID] = &cp
	s.latest = p.ID
	return nil
}

// Reset removes all saved sessions.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*SessionProgress)
	s.latest = ""
	return nil
}
