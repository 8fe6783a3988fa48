// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Booking, Admin, Session and WorkflowTask.
package model

import "time"

// Admin represents a back-office administrator account.
type Admin struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Name         string       `json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  NullTime `json:"last_login_at"`
}
