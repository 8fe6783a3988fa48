// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Workflow task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusDone      = "done"
	TaskStatusCancelled = "cancelled"
	TaskStatusFailed    = "failed"
)

// Workflow task kinds.
const (
	TaskKindNurtureEmail = "nurture_email"
)

// TaskMaxAttempts is how many times a task may run before it is marked failed.
const TaskMaxAttempts = 3

// WorkflowTask is a deferred unit of follow-up work tied to a booking.
// Tasks are persisted so they survive restarts and can be cancelled when
// the booking they belong to is archived.
type WorkflowTask struct {
	ID        string    `json:"id"` // UUID
	BookingID int64     `json:"booking_id"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload"` // JSON string
	RunAt     time.Time `json:"run_at"`
	Status    string    `json:"status"`
	Attempts  int64     `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
