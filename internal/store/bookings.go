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

const bookingColumns = `id, first_name, last_name, email, phone, event_type, event_date,
	guest_count, budget, location, message, status, admin_notes, responded,
	responded_at, newsletter_opt_in, created_at, updated_at`

func scanBooking(row *sql.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.EventType,
		&b.EventDate, &b.GuestCount, &b.Budget, &b.Location, &b.Message, &b.Status,
		&b.AdminNotes, &b.Responded, &b.RespondedAt, &b.NewsletterOptIn,
		&b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// CreateBookingParams holds the fields for creating a booking.
type CreateBookingParams struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	EventType       string
	EventDate       string
	GuestCount      int64
	Budget          string
	Location        string
	Message         string
	NewsletterOptIn bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateBooking inserts a new booking in pending status and returns it.
func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (model.Booking, error) {
	const query = `
		INSERT INTO bookings (first_name, last_name, email, phone, event_type, event_date,
			guest_count, budget, location, message, status, newsletter_opt_in,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + bookingColumns

	b, err := scanBooking(q.db.QueryRowContext(ctx, query,
		arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.EventType, arg.EventDate,
		arg.GuestCount, arg.Budget, arg.Location, arg.Message, model.BookingStatusPending,
		arg.NewsletterOptIn, arg.CreatedAt, arg.UpdatedAt))
	if err != nil {
		return model.Booking{}, fmt.Errorf("creating booking: %w", err)
	}
	return b, nil
}

// GetBooking looks up a booking by id.
func (q *Queries) GetBooking(ctx context.Context, id int64) (model.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanBooking(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("getting booking: %w", err)
	}
	return b, nil
}

// ListBookings returns all bookings, newest first.
func (q *Queries) ListBookings(ctx context.Context) ([]model.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.EventType,
			&b.EventDate, &b.GuestCount, &b.Budget, &b.Location, &b.Message, &b.Status,
			&b.AdminNotes, &b.Responded, &b.RespondedAt, &b.NewsletterOptIn,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingParams holds the full admin-editable state of a booking.
// Callers merge the incoming patch over the current row first so the
// write is a single statement.
type UpdateBookingParams struct {
	ID          int64
	Status      string
	AdminNotes  model.NullString
	Responded   bool
	RespondedAt model.NullTime
	UpdatedAt   time.Time
}

// UpdateBooking applies the admin-editable fields atomically and returns
// the updated booking. Returns ErrNotFound for an unknown id.
func (q *Queries) UpdateBooking(ctx context.Context, arg UpdateBookingParams) (model.Booking, error) {
	const query = `
		UPDATE bookings
		SET status = ?, admin_notes = ?, responded = ?, responded_at = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + bookingColumns

	b, err := scanBooking(q.db.QueryRowContext(ctx, query,
		arg.Status, arg.AdminNotes, arg.Responded, arg.RespondedAt, arg.UpdatedAt, arg.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("updating booking: %w", err)
	}
	return b, nil
}
