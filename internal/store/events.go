// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bluestem-events/bluestem/internal/model"
)

// CreateEventParams holds the fields for an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	AdminID   sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	const query = `
		INSERT INTO events (level, category, message, admin_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := q.db.ExecContext(ctx, query,
		arg.Level, arg.Category, arg.Message, arg.AdminID, arg.Metadata, arg.CreatedAt); err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// ListRecentEvents returns the most recent event log entries.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	const query = `
		SELECT id, level, category, message, admin_id, metadata, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message,
			&e.AdminID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}
