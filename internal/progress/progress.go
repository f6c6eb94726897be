// Package progress defines the persisted session-position state and the
// store contract it travels through. Progress is an explicit value owned by
// the session and saved through an injected store; nothing else mutates it.
package progress

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionProgress is the durable review position: the boundary between
// reviewed and unreviewed catalog indices plus the cumulative counters.
type SessionProgress struct {
	// ID identifies the session record (ULID).
	ID string `json:"id"`

	// Cursor is the count of catalog items already resolved.
	Cursor int `json:"cursor"`

	// Total is the catalog size observed when the session last ran.
	Total int `json:"total"`

	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Store persists session progress.
type Store interface {
	// Load returns the most recently updated session, or a NOT_FOUND coded
	// error when no session has been saved.
	Load(ctx context.Context) (*SessionProgress, error)

	// Save upserts the session record.
	Save(ctx context.Context, p *SessionProgress) error

	// Reset removes all saved sessions.
	Reset(ctx context.Context) error
}

// NewID generates a new session ULID.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New creates fresh progress for a catalog of the given size.
func New(total int) (*SessionProgress, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	return &SessionProgress{
		ID:        id,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
