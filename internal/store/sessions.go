// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bluestem-events/bluestem/internal/model"
)

// CreateSessionParams holds the fields for creating a session row.
type CreateSessionParams struct {
	Token     string
	AdminID   int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CreateSession inserts a new session row.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	const query = `
		INSERT INTO sessions (token, admin_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`

	if _, err := q.db.ExecContext(ctx, query,
		arg.Token, arg.AdminID, arg.CreatedAt, arg.ExpiresAt); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession looks up a session by token. Expiry is the caller's concern;
// this returns the row as stored.
func (q *Queries) GetSession(ctx context.Context, token string) (model.Session, error) {
	const query = `
		SELECT token, admin_id, created_at, expires_at
		FROM sessions WHERE token = ?`

	var s model.Session
	err := q.db.QueryRowContext(ctx, query, token).
		Scan(&s.Token, &s.AdminID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session row. Deleting a missing token is not an error.
func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry and returns
// how many rows were deleted.
func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return n, nil
}
