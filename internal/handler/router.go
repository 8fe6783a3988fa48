// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bluestem-events/bluestem/internal/cache"
	"github.com/bluestem-events/bluestem/internal/geoip"
	"github.com/bluestem-events/bluestem/internal/middleware"
	"github.com/bluestem-events/bluestem/internal/session"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	DB           *sql.DB
	Store        store.Store
	Cache        cache.Cache
	Sessions     *session.Manager
	Orchestrator *workflow.Orchestrator
	Geo          *geoip.Resolver
	Protection   *middleware.LoginProtection
	Logger       *slog.Logger
	SecretKey    []byte
	IsDev        bool
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(cfg RouterConfig) chi.Router {
	bookings := NewBookingHandler(cfg.Store, cfg.Cache, cfg.Orchestrator, cfg.Geo, cfg.Logger)
	auth := NewAuthHandler(cfg.Sessions, cfg.Protection, cfg.Logger)
	events := NewEventsHandler(cfg.Store, cfg.Logger)
	health := NewHealthHandler(cfg.DB, cfg.Cache)

	globalLimiter := middleware.NewGlobalRateLimiter(20, 40)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDev)))
	r.Use(globalLimiter.Middleware())
	// The public intake is meant for cross-origin form posts.
	r.Use(middleware.SkipCSRF("/bookings"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(cfg.SecretKey, cfg.IsDev)))

	r.Get("/health", health.Public)

	r.Post("/bookings", bookings.Create)

	r.Route("/auth", func(r chi.Router) {
		r.With(cfg.Protection.Middleware()).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)
		r.Get("/me", auth.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(cfg.Sessions))

		r.Get("/bookings", bookings.List)
		r.Patch("/bookings/{id}", bookings.Update)
		r.Post("/contact/{id}/workflow", bookings.RunWorkflow)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/events", events.List)
			r.Get("/health", health.Admin)
		})
	})

	return r
}
