package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpx/cull/internal/progress"
)

// SessionStore implements progress.Store over the sessions table.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore wraps an initialized database as a progress store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Load returns the most recently updated session.
func (s *SessionStore) Load(ctx context.Context) (*progress.SessionProgress, error) {
	return GetLatestSession(ctx, s.db)
}

// Save upserts the session record, stamping updated_at.
func (s *SessionStore) Save(ctx context.Context, p *progress.SessionProgress) error {
	p.UpdatedAt = time.Now().Unix()
	return UpsertSession(ctx, s.db, p)
}

// Reset removes all saved sessions.
func (s *SessionStore) Reset(ctx context.Context) error {
	return DeleteAllSessions(ctx, s.db)
}

var _ progress.Store = (*SessionStore)(nil)
