// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session implements cookie-backed admin sessions. Tokens are
// opaque random values stored server side; the cookie carries nothing else.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluestem-events/bluestem/internal/auth"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
)

// ErrInvalidCredentials is returned for a failed login. It deliberately
// does not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("session: invalid credentials")

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("session: no valid session")

// Store is the persistence surface the manager needs.
type Store interface {
	store.AdminStore
	store.SessionStore
}

// Bootstrap holds the development-only auto-provisioned admin credentials.
type Bootstrap struct {
	Email    string
	Password string
}

// Manager issues, validates and revokes admin sessions.
type Manager struct {
	store     Store
	logger    *slog.Logger
	isDev     bool
	bootstrap Bootstrap
}

// NewManager creates a session manager. The bootstrap pair is only honored
// in development and only while the admin table is empty.
func NewManager(st Store, logger *slog.Logger, isDev bool, bootstrap Bootstrap) *Manager {
	return &Manager{
		store:     st,
		logger:    logger,
		isDev:     isDev,
		bootstrap: bootstrap,
	}
}

// Login verifies credentials and establishes a fresh session. Any session
// referenced by the presented cookie is revoked first, so a token captured
// before authentication never survives it.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) (model.Admin, error) {
	admin, err := m.store.GetAdminByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		admin, err = m.bootstrapAdmin(ctx, email, password)
		if err != nil {
			return model.Admin{}, err
		}
	} else if err != nil {
		return model.Admin{}, err
	}

	valid, err := auth.CheckPassword(password, admin.PasswordHash)
	if err != nil {
		m.logger.Error("password verification failed", "category", model.EventCategoryAuth, "error", err)
		return model.Admin{}, ErrInvalidCredentials
	}
	if !valid {
		return model.Admin{}, ErrInvalidCredentials
	}

	// Transparently upgrade hashes created at an older, lower cost.
	if auth.NeedsRehash(admin.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err != nil {
			m.logger.Warn("rehashing password failed", "category", model.EventCategoryAuth, "error", err)
		} else if err := m.store.UpdateAdminPassword(ctx, admin.ID, newHash); err != nil {
			m.logger.Warn("storing rehashed password failed", "category", model.EventCategoryAuth, "error", err)
		} else {
			admin.PasswordHash = newHash
			m.logger.Info("password hash upgraded", "category", model.EventCategoryAuth, "admin_id", admin.ID)
		}
	}

	// Session fixation defense: whatever token the client showed up with
	// is dead after this point.
	if cookie, err := r.Cookie(model.SessionCookieName); err == nil && cookie.Value != "" {
		if err := m.store.DeleteSession(ctx, cookie.Value); err != nil {
			m.logger.Warn("revoking presented session failed", "category", model.EventCategoryAuth, "error", err)
		}
	}

	now := time.Now().UTC()

	// Logins double as the cleanup trigger for stale session rows.
	if n, err := m.store.DeleteExpiredSessions(ctx, now); err != nil {
		m.logger.Warn("sweeping expired sessions failed", "category", model.EventCategoryAuth, "error", err)
	} else if n > 0 {
		m.logger.Info("swept expired sessions", "count", n)
	}

	token, err := model.GenerateSessionToken()
	if err != nil {
		return model.Admin{}, err
	}
	if err := m.store.CreateSession(ctx, store.CreateSessionParams{
		Token:     token,
		AdminID:   admin.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(model.SessionTTL),
	}); err != nil {
		return model.Admin{}, err
	}

	if err := m.store.UpdateAdminLastLogin(ctx, store.UpdateAdminLastLoginParams{
		ID:          admin.ID,
		LastLoginAt: now,
	}); err != nil {
		m.logger.Warn("stamping last login failed", "category", model.EventCategoryAuth, "error", err)
	}

	m.setCookie(w, token)
	m.logger.Info("admin logged in", "category", model.EventCategoryAuth, "admin_id", admin.ID)
	return admin, nil
}

// Logout revokes the presented session. Logging out without a session is
// not an error.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(model.SessionCookieName); err == nil && cookie.Value != "" {
		if err := m.store.DeleteSession(ctx, cookie.Value); err != nil {
			return err
		}
	}
	m.clearCookie(w)
	return nil
}

// CurrentAdmin resolves the admin for the request's session cookie.
// An expired session row is deleted on sight and treated as absent.
// Whenever the presented cookie does not resolve to a live session, the
// cookie is cleared on the response so the client stops sending it.
func (m *Manager) CurrentAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request) (model.Admin, error) {
	cookie, err := r.Cookie(model.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return model.Admin{}, ErrNoSession
	}

	sess, err := m.store.GetSession(ctx, cookie.Value)
	if errors.Is(err, store.ErrNotFound) {
		m.clearCookie(w)
		return model.Admin{}, ErrNoSession
	}
	if err != nil {
		return model.Admin{}, err
	}

	if sess.Expired(time.Now().UTC()) {
		if err := m.store.DeleteSession(ctx, sess.Token); err != nil {
			m.logger.Warn("deleting expired session failed", "category", model.EventCategoryAuth, "error", err)
		}
		m.clearCookie(w)
		return model.Admin{}, ErrNoSession
	}

	admin, err := m.store.GetAdminByID(ctx, sess.AdminID)
	if errors.Is(err, store.ErrNotFound) {
		// Admin deleted while the session was live.
		_ = m.store.DeleteSession(ctx, sess.Token)
		m.clearCookie(w)
		return model.Admin{}, ErrNoSession
	}
	if err != nil {
		return model.Admin{}, err
	}
	return admin, nil
}

// bootstrapAdmin provisions the configured development admin on first
// login against an empty admin table. Outside development, or for any
// other credentials, it reports invalid credentials.
func (m *Manager) bootstrapAdmin(ctx context.Context, email, password string) (model.Admin, error) {
	if !m.isDev || m.bootstrap.Email == "" || m.bootstrap.Password == "" {
		return model.Admin{}, ErrInvalidCredentials
	}
	if email != m.bootstrap.Email || password != m.bootstrap.Password {
		return model.Admin{}, ErrInvalidCredentials
	}

	count, err := m.store.CountAdmins(ctx)
	if err != nil {
		return model.Admin{}, err
	}
	if count > 0 {
		return model.Admin{}, ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.Admin{}, err
	}
	admin, err := m.store.CreateAdmin(ctx, store.CreateAdminParams{
		Email:        email,
		PasswordHash: hash,
		Name:         "Admin",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return model.Admin{}, err
	}
	m.logger.Warn("bootstrap admin provisioned", "category", model.EventCategoryAuth, "email", email)
	return admin, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(model.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !m.isDev,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !m.isDev,
		SameSite: http.SameSiteLaxMode,
	})
}
