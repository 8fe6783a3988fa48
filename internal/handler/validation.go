// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// minMessageLength is the minimum trimmed length of an intake message.
const minMessageLength = 10

// sanitizer strips all HTML from user-supplied free text.
var sanitizer = bluemonday.StrictPolicy()

// bookingInput is the public intake payload.
type bookingInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	EventType       string `json:"eventType"`
	EventDate       string `json:"eventDate"`
	GuestCount      int64  `json:"guestCount"`
	Budget          string `json:"budget"`
	Location        string `json:"location"`
	Message         string `json:"message"`
	NewsletterOptIn bool   `json:"newsletterOptIn"`
}

// validate checks the required intake fields. Returns the first problem
// found as a user-facing message, or "".
func (in *bookingInput) validate() string {
	if strings.TrimSpace(in.FirstName) == "" {
		return "first name is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		return "last name is required"
	}
	if !isValidEmail(in.Email) {
		return "a valid email is required"
	}
	if len(strings.TrimSpace(in.Message)) < minMessageLength {
		return "message must be at least 10 characters"
	}
	if in.GuestCount < 0 {
		return "guest count cannot be negative"
	}
	return ""
}

// sanitize strips HTML from the free-text fields in place.
func (in *bookingInput) sanitize() {
	in.FirstName = strings.TrimSpace(sanitizer.Sanitize(in.FirstName))
	in.LastName = strings.TrimSpace(sanitizer.Sanitize(in.LastName))
	in.Phone = strings.TrimSpace(sanitizer.Sanitize(in.Phone))
	in.EventType = strings.TrimSpace(sanitizer.Sanitize(in.EventType))
	in.EventDate = strings.TrimSpace(sanitizer.Sanitize(in.EventDate))
	in.Budget = strings.TrimSpace(sanitizer.Sanitize(in.Budget))
	in.Location = strings.TrimSpace(sanitizer.Sanitize(in.Location))
	in.Message = strings.TrimSpace(sanitizer.Sanitize(in.Message))
	in.Email = strings.TrimSpace(in.Email)
}

// isValidEmail requires an @ with non-empty local and domain parts.
func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
