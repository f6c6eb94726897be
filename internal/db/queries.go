package db

import (
	"context"
	"database/sql"

	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/progress"
)

// UpsertSession inserts or updates a session progress record.
func UpsertSession(ctx context.Context, db *sql.DB, p *progress.SessionProgress) error {
	query := `
		INSERT INTO sessions (id, cursor, total, accepted, rejected, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cursor = excluded.cursor,
			total = excluded.total,
			accepted = excluded.accepted,
			rejected = excluded.rejected,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		p.ID, p.Cursor, p.Total, p.Accepted, p.Rejected, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetLatestSession returns the most recently updated session record.
func GetLatestSession(ctx context.Context, db *sql.DB) (*progress.SessionProgress, error) {
	query := `
		SELECT id, cursor, total, accepted, rejected, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`
	return scanSession(db.QueryRowContext(ctx, query))
}

// GetSessionByID returns one session record.
func GetSessionByID(ctx context.Context, db *sql.DB, id string) (*progress.SessionProgress, error) {
	query := `
		SELECT id, cursor, total, accepted, rejected, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`
	return scanSession(db.QueryRowContext(ctx, query, id))
}

// DeleteAllSessions removes every session record.
func DeleteAllSessions(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func scanSession(row *sql.Row) (*progress.SessionProgress, error) {
	p := &progress.SessionProgress{}
	err := row.Scan(&p.ID, &p.Cursor, &p.Total, &p.Accepted, &p.Rejected, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("session progress")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}
