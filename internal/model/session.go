// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// SessionTTL is how long an admin session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// Session is a server-side admin session. The token is an opaque random
// value; everything else about the session lives in this row.
type Session struct {
	Token     string    `json:"-"` // Never expose in JSON
	AdminID   int64     `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// GenerateSessionToken generates an unguessable session token.
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
