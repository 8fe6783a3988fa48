// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bluestem-events/bluestem/internal/model"
)

// Memory is an in-process Store implementation with the same semantics as
// Queries. It backs unit tests that do not need a real database.
type Memory struct {
	mu sync.Mutex

	admins      map[int64]model.Admin
	nextAdmin   int64
	sessions    map[string]model.Session
	bookings    map[int64]model.Booking
	nextBooking int64
	tasks       map[string]model.WorkflowTask
	events      []model.Event
	nextEvent   int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		admins:   make(map[int64]model.Admin),
		sessions: make(map[string]model.Session),
		bookings: make(map[int64]model.Booking),
		tasks:    make(map[string]model.WorkflowTask),
	}
}

func (m *Memory) CreateAdmin(_ context.Context, arg CreateAdminParams) (model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAdmin++
	a := model.Admin{
		ID:           m.nextAdmin,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		CreatedAt:    arg.CreatedAt,
	}
	m.admins[a.ID] = a
	return a, nil
}

func (m *Memory) GetAdminByEmail(_ context.Context, email string) (model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return model.Admin{}, ErrNotFound
}

func (m *Memory) GetAdminByID(_ context.Context, id int64) (model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[id]
	if !ok {
		return model.Admin{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) UpdateAdminLastLogin(_ context.Context, arg UpdateAdminLastLoginParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[arg.ID]
	if !ok {
		return nil
	}
	a.LastLoginAt.Time = arg.LastLoginAt
	a.LastLoginAt.Valid = true
	m.admins[arg.ID] = a
	return nil
}

func (m *Memory) UpdateAdminPassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[id]
	if !ok {
		return nil
	}
	a.PasswordHash = passwordHash
	m.admins[id] = a
	return nil
}

func (m *Memory) CountAdmins(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.admins)), nil
}

func (m *Memory) CreateSession(_ context.Context, arg CreateSessionParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[arg.Token] = model.Session{
		Token:     arg.Token,
		AdminID:   arg.AdminID,
		CreatedAt: arg.CreatedAt,
		ExpiresAt: arg.ExpiresAt,
	}
	return nil
}

func (m *Memory) GetSession(_ context.Context, token string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *Memory) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateBooking(_ context.Context, arg CreateBookingParams) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBooking++
	b := model.Booking{
		ID:              m.nextBooking,
		FirstName:       arg.FirstName,
		LastName:        arg.LastName,
		Email:           arg.Email,
		Phone:           arg.Phone,
		EventType:       arg.EventType,
		EventDate:       arg.EventDate,
		GuestCount:      arg.GuestCount,
		Budget:          arg.Budget,
		Location:        arg.Location,
		Message:         arg.Message,
		Status:          model.BookingStatusPending,
		NewsletterOptIn: arg.NewsletterOptIn,
		CreatedAt:       arg.CreatedAt,
		UpdatedAt:       arg.UpdatedAt,
	}
	m.bookings[b.ID] = b
	return b, nil
}

func (m *Memory) GetBooking(_ context.Context, id int64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) ListBookings(_ context.Context) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bookings := make([]model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		bookings = append(bookings, b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		return bookings[i].ID > bookings[j].ID
	})
	return bookings, nil
}

func (m *Memory) UpdateBooking(_ context.Context, arg UpdateBookingParams) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[arg.ID]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	b.Status = arg.Status
	b.AdminNotes = arg.AdminNotes
	b.Responded = arg.Responded
	b.RespondedAt = arg.RespondedAt
	b.UpdatedAt = arg.UpdatedAt
	m.bookings[arg.ID] = b
	return b, nil
}

func (m *Memory) CreateTask(_ context.Context, arg CreateTaskParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks[arg.ID] = model.WorkflowTask{
		ID:        arg.ID,
		BookingID: arg.BookingID,
		Kind:      arg.Kind,
		Payload:   arg.Payload,
		RunAt:     arg.RunAt,
		Status:    model.TaskStatusPending,
		CreatedAt: arg.CreatedAt,
		UpdatedAt: arg.CreatedAt,
	}
	return nil
}

func (m *Memory) GetTask(_ context.Context, id string) (model.WorkflowTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return model.WorkflowTask{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListDueTasks(_ context.Context, arg ListDueTasksParams) ([]model.WorkflowTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []model.WorkflowTask
	for _, t := range m.tasks {
		if t.Status == model.TaskStatusPending && !t.RunAt.After(arg.Now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].RunAt.Before(due[j].RunAt) })
	if arg.Limit > 0 && int64(len(due)) > arg.Limit {
		due = due[:arg.Limit]
	}
	return due, nil
}

func (m *Memory) ListTasksForBooking(_ context.Context, bookingID int64) ([]model.WorkflowTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []model.WorkflowTask
	for _, t := range m.tasks {
		if t.BookingID == bookingID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].RunAt.Before(tasks[j].RunAt) })
	return tasks, nil
}

func (m *Memory) MarkTaskDone(_ context.Context, arg MarkTaskDoneParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[arg.ID]
	if !ok {
		return nil
	}
	t.Status = model.TaskStatusDone
	t.Attempts++
	t.UpdatedAt = arg.UpdatedAt
	m.tasks[arg.ID] = t
	return nil
}

func (m *Memory) RecordTaskFailure(_ context.Context, arg RecordTaskFailureParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[arg.ID]
	if !ok {
		return nil
	}
	t.Attempts++
	t.LastError = arg.LastError
	if t.Attempts >= arg.MaxAttempts {
		t.Status = model.TaskStatusFailed
	}
	t.UpdatedAt = arg.UpdatedAt
	m.tasks[arg.ID] = t
	return nil
}

func (m *Memory) CancelTasksForBooking(_ context.Context, arg CancelTasksForBookingParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.tasks {
		if t.BookingID == arg.BookingID && t.Status == model.TaskStatusPending {
			t.Status = model.TaskStatusCancelled
			t.UpdatedAt = arg.UpdatedAt
			m.tasks[id] = t
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateEvent(_ context.Context, arg CreateEventParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextEvent++
	m.events = append(m.events, model.Event{
		ID:        m.nextEvent,
		Level:     arg.Level,
		Category:  arg.Category,
		Message:   arg.Message,
		AdminID:   arg.AdminID,
		Metadata:  arg.Metadata,
		CreatedAt: arg.CreatedAt,
	})
	return nil
}

func (m *Memory) ListRecentEvents(_ context.Context, limit int64) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]model.Event, len(m.events))
	copy(events, m.events)
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	if limit > 0 && int64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}
