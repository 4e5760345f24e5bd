// Package repository provides the persistent stores for exercise
// session snapshots. Both implementations satisfy exercise.SnapshotStore:
// Load returns (nil, nil) when no snapshot exists.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteSnapshotRepo stores session snapshots in a SQLite table.
type SQLiteSnapshotRepo struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepo creates a snapshot repo over an open database.
func NewSQLiteSnapshotRepo(conn *sql.DB) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: conn}
}

func (r *SQLiteSnapshotRepo) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var snapshot string
	err := r.db.QueryRowContext(ctx,
		`SELECT snapshot FROM exercise_sessions WHERE session_id = ?`, sessionID,
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return []byte(snapshot), nil
}

func (r *SQLiteSnapshotRepo) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exercise_sessions (session_id, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		sessionID, string(snapshot), now,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM exercise_sessions WHERE session_id = ?`, sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
