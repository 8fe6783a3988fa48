// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Booking status values.
const (
	BookingStatusPending    = "pending"
	BookingStatusInProgress = "in_progress"
	BookingStatusResolved   = "resolved"
	BookingStatusArchived   = "archived"
)

// ValidBookingStatuses lists every accepted booking status.
var ValidBookingStatuses = []string{
	BookingStatusPending,
	BookingStatusInProgress,
	BookingStatusResolved,
	BookingStatusArchived,
}

// IsValidBookingStatus returns true if the status is a known value.
func IsValidBookingStatus(status string) bool {
	for _, s := range ValidBookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Booking is an event inquiry submitted through the public intake form.
// The JSON tags are the public API contract, camelCase on the wire.
type Booking struct {
	ID              int64      `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	EventType       string     `json:"eventType"`
	EventDate       string     `json:"eventDate"`
	GuestCount      int64      `json:"guestCount"`
	Budget          string     `json:"budget"`
	Location        string     `json:"location"`
	Message         string     `json:"message"`
	Status          string     `json:"status"`
	AdminNotes      NullString `json:"adminNotes"`
	Responded       bool       `json:"responded"`
	RespondedAt     NullTime   `json:"respondedAt"`
	NewsletterOptIn bool       `json:"newsletterOptIn"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// FullName joins the submitter's first and last names.
func (b Booking) FullName() string {
	return b.FirstName + " " + b.LastName
}
