// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluestem-events/bluestem/internal/middleware"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/session"
)

// AuthHandler serves login, logout and session introspection.
type AuthHandler struct {
	sessions   *session.Manager
	protection *middleware.LoginProtection
	logger     *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(sessions *session.Manager, protection *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, protection: protection, logger: logger}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if locked, remaining := h.protection.IsAccountLocked(in.Email); locked {
		h.logger.Warn("login attempt on locked account",
			"category", "auth", "email", in.Email)
		writeJSONError(w, http.StatusTooManyRequests,
			fmt.Sprintf("account temporarily locked, try again in %s", remaining.Round(time.Second)))
		return
	}

	admin, err := h.sessions.Login(r.Context(), w, r, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			if lockedNow, _ := h.protection.RecordFailedAttempt(in.Email); lockedNow {
				h.logger.Warn("account locked after repeated failures",
					"category", "auth", "email", in.Email)
			}
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login failed", "category", "auth", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	h.protection.RecordSuccessfulLogin(in.Email)
	h.logger.Info("admin logged in", "category", "auth", "admin_id", admin.ID, "email", admin.Email)

	writeJSONSuccess(w, http.StatusOK, map[string]any{"admin": publicAdmin(admin)})
}

// Logout handles POST /auth/logout. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.logger.Warn("logout cleanup failed", "category", "auth", "error", err)
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, err := h.sessions.CurrentAdmin(r.Context(), w, r)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"admin":         publicAdmin(admin),
	})
}

// publicAdmin is the admin shape exposed over the API.
func publicAdmin(a model.Admin) map[string]any {
	return map[string]any{
		"id":    a.ID,
		"email": a.Email,
		"name":  a.Name,
	}
}
