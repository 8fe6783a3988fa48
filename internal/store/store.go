// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for bookings, admins, sessions,
// the event log and the workflow task queue. Queries is the SQLite-backed
// implementation; Memory offers the same behavior in process for tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bluestem-events/bluestem/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// DBTX is the subset of database/sql used by Queries. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// AdminStore covers admin account persistence.
type AdminStore interface {
	CreateAdmin(ctx context.Context, arg CreateAdminParams) (model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (model.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (model.Admin, error)
	UpdateAdminLastLogin(ctx context.Context, arg UpdateAdminLastLoginParams) error
	UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error
	CountAdmins(ctx context.Context) (int64, error)
}

// SessionStore covers admin session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, arg CreateSessionParams) error
	GetSession(ctx context.Context, token string) (model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// BookingStore covers booking persistence.
type BookingStore interface {
	CreateBooking(ctx context.Context, arg CreateBookingParams) (model.Booking, error)
	GetBooking(ctx context.Context, id int64) (model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, arg UpdateBookingParams) (model.Booking, error)
}

// TaskStore covers the persisted workflow task queue.
type TaskStore interface {
	CreateTask(ctx context.Context, arg CreateTaskParams) error
	GetTask(ctx context.Context, id string) (model.WorkflowTask, error)
	ListDueTasks(ctx context.Context, arg ListDueTasksParams) ([]model.WorkflowTask, error)
	ListTasksForBooking(ctx context.Context, bookingID int64) ([]model.WorkflowTask, error)
	MarkTaskDone(ctx context.Context, arg MarkTaskDoneParams) error
	RecordTaskFailure(ctx context.Context, arg RecordTaskFailureParams) error
	CancelTasksForBooking(ctx context.Context, arg CancelTasksForBookingParams) (int64, error)
}

// EventStore covers the event log.
type EventStore interface {
	CreateEvent(ctx context.Context, arg CreateEventParams) error
	ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error)
}

// Store is the full persistence surface the application depends on.
type Store interface {
	AdminStore
	SessionStore
	BookingStore
	TaskStore
	EventStore
}

var (
	_ Store = (*Queries)(nil)
	_ Store = (*Memory)(nil)
)
