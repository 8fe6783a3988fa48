// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// EventsHandler lists recent event-log entries for admins.
type EventsHandler struct {
	store  store.EventStore
	logger *slog.Logger
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(st store.EventStore, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{store: st, logger: logger}
}

// List handles GET /admin/events. Accepts an optional ?limit= parameter.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultEventLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > maxEventLimit {
			n = maxEventLimit
		}
		limit = n
	}

	events, err := h.store.ListRecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing events failed", "category", "system", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not load events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{"events": events})
}
