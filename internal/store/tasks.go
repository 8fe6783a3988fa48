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

const taskColumns = `id, booking_id, kind, payload, run_at, status, attempts,
	last_error, created_at, updated_at`

// CreateTaskParams holds the fields for scheduling a workflow task.
type CreateTaskParams struct {
	ID        string
	BookingID int64
	Kind      string
	Payload   string
	RunAt     time.Time
	CreatedAt time.Time
}

// CreateTask schedules a new pending workflow task.
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) error {
	const query = `
		INSERT INTO workflow_tasks (id, booking_id, kind, payload, run_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := q.db.ExecContext(ctx, query,
		arg.ID, arg.BookingID, arg.Kind, arg.Payload, arg.RunAt, arg.CreatedAt, arg.CreatedAt); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// GetTask looks up a workflow task by id.
func (q *Queries) GetTask(ctx context.Context, id string) (model.WorkflowTask, error) {
	const query = `SELECT ` + taskColumns + ` FROM workflow_tasks WHERE id = ?`

	var t model.WorkflowTask
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.BookingID, &t.Kind, &t.Payload, &t.RunAt, &t.Status,
			&t.Attempts, &t.LastError, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WorkflowTask{}, ErrNotFound
	}
	if err != nil {
		return model.WorkflowTask{}, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// ListDueTasksParams bounds a due-task poll.
type ListDueTasksParams struct {
	Now   time.Time
	Limit int64
}

// ListDueTasks returns pending tasks whose run time has arrived, oldest first.
func (q *Queries) ListDueTasks(ctx context.Context, arg ListDueTasksParams) ([]model.WorkflowTask, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM workflow_tasks
		WHERE status = 'pending' AND run_at <= ?
		ORDER BY run_at ASC LIMIT ?`

	return q.queryTasks(ctx, query, arg.Now, arg.Limit)
}

// ListTasksForBooking returns all tasks for a booking, oldest first.
func (q *Queries) ListTasksForBooking(ctx context.Context, bookingID int64) ([]model.WorkflowTask, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM workflow_tasks WHERE booking_id = ? ORDER BY run_at ASC`

	return q.queryTasks(ctx, query, bookingID)
}

func (q *Queries) queryTasks(ctx context.Context, query string, args ...any) ([]model.WorkflowTask, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.WorkflowTask
	for rows.Next() {
		var t model.WorkflowTask
		if err := rows.Scan(&t.ID, &t.BookingID, &t.Kind, &t.Payload, &t.RunAt, &t.Status,
			&t.Attempts, &t.LastError, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// MarkTaskDoneParams marks a task as completed.
type MarkTaskDoneParams struct {
	ID        string
	UpdatedAt time.Time
}

// MarkTaskDone marks a task done.
func (q *Queries) MarkTaskDone(ctx context.Context, arg MarkTaskDoneParams) error {
	const query = `
		UPDATE workflow_tasks
		SET status = 'done', attempts = attempts + 1, updated_at = ?
		WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, arg.UpdatedAt, arg.ID); err != nil {
		return fmt.Errorf("marking task done: %w", err)
	}
	return nil
}

// RecordTaskFailureParams records a failed attempt.
type RecordTaskFailureParams struct {
	ID          string
	LastError   string
	MaxAttempts int64
	UpdatedAt   time.Time
}

// RecordTaskFailure increments the attempt counter and records the error.
// The task stays pending until it exhausts MaxAttempts, then becomes failed.
func (q *Queries) RecordTaskFailure(ctx context.Context, arg RecordTaskFailureParams) error {
	const query = `
		UPDATE workflow_tasks
		SET attempts = attempts + 1,
			last_error = ?,
			status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END,
			updated_at = ?
		WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query,
		arg.LastError, arg.MaxAttempts, arg.UpdatedAt, arg.ID); err != nil {
		return fmt.Errorf("recording task failure: %w", err)
	}
	return nil
}

// CancelTasksForBookingParams cancels all pending tasks for a booking.
type CancelTasksForBookingParams struct {
	BookingID int64
	UpdatedAt time.Time
}

// CancelTasksForBooking marks every pending task for the booking cancelled
// and returns how many were affected.
func (q *Queries) CancelTasksForBooking(ctx context.Context, arg CancelTasksForBookingParams) (int64, error) {
	const query = `
		UPDATE workflow_tasks
		SET status = 'cancelled', updated_at = ?
		WHERE booking_id = ? AND status = 'pending'`

	res, err := q.db.ExecContext(ctx, query, arg.UpdatedAt, arg.BookingID)
	if err != nil {
		return 0, fmt.Errorf("cancelling tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cancelled tasks: %w", err)
	}
	return n, nil
}
