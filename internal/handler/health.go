// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/bluestem-events/bluestem/internal/cache"
	"github.com/bluestem-events/bluestem/internal/version"
)

// HealthHandler answers liveness and detailed health checks.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cache
	startTime time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *sql.DB, c cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c, startTime: time.Now()}
}

// healthCheck is a single check result.
type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Public handles GET /health with a minimal body.
func (h *HealthHandler) Public(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if h.checkDatabase(r).Status != "healthy" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// Admin handles GET /admin/health with full details.
func (h *HealthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r)

	status := "healthy"
	code := http.StatusOK
	if dbCheck.Status != "healthy" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   version.Version,
		"checks": map[string]healthCheck{
			"database": dbCheck,
		},
		"system": map[string]any{
			"go_version":     runtime.Version(),
			"num_goroutines": runtime.NumGoroutine(),
		},
	}

	if sp, ok := h.cache.(cache.StatsProvider); ok {
		body["cache"] = sp.Stats()
	}

	writeJSON(w, code, body)
}

func (h *HealthHandler) checkDatabase(r *http.Request) healthCheck {
	start := time.Now()
	if err := h.db.PingContext(r.Context()); err != nil {
		return healthCheck{Status: "unhealthy", Message: err.Error()}
	}
	return healthCheck{
		Status:  "healthy",
		Latency: time.Since(start).Round(time.Microsecond).String(),
	}
}
