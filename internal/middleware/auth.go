// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting and security headers.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/session"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

// ContextKeyAdmin carries the authenticated admin.
const ContextKeyAdmin ContextKey = "admin"

// writeAuthError writes the JSON 401 body used by protected routes.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "authentication required",
	})
}

// RequireAdmin resolves the session cookie and rejects unauthenticated
// requests with a JSON 401. The admin is stored on the request context.
func RequireAdmin(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := sessions.CurrentAdmin(r.Context(), w, r)
			if errors.Is(err, session.ErrNoSession) {
				writeAuthError(w)
				return
			}
			if err != nil {
				slog.Error("resolving session failed", "error", err)
				writeAuthError(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdmin, &admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin retrieves the authenticated admin from the request context.
// Returns nil when the request is unauthenticated.
func GetAdmin(ctx context.Context) *model.Admin {
	admin, ok := ctx.Value(ContextKeyAdmin).(*model.Admin)
	if !ok {
		return nil
	}
	return admin
}
