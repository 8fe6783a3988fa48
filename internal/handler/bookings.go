// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mileusna/useragent"

	"github.com/bluestem-events/bluestem/internal/cache"
	"github.com/bluestem-events/bluestem/internal/geoip"
	"github.com/bluestem-events/bluestem/internal/middleware"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

// bookingListCacheKey caches the admin booking list until the next write.
const bookingListCacheKey = "bookings:list"

// BookingHandler serves the public intake and the admin booking API.
type BookingHandler struct {
	store  store.Store
	cache  cache.Cache
	orch   *workflow.Orchestrator
	geo    *geoip.Resolver
	logger *slog.Logger
}

// NewBookingHandler creates a booking handler. geo may be a disabled resolver.
func NewBookingHandler(st store.Store, c cache.Cache, orch *workflow.Orchestrator, geo *geoip.Resolver, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{store: st, cache: c, orch: orch, geo: geo, logger: logger}
}

// Create handles POST /bookings, the public intake endpoint.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in bookingInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg := in.validate(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	in.sanitize()

	now := time.Now()
	booking, err := h.store.CreateBooking(r.Context(), store.CreateBookingParams{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		EventType:       in.EventType,
		EventDate:       in.EventDate,
		GuestCount:      in.GuestCount,
		Budget:          in.Budget,
		Location:        in.Location,
		Message:         in.Message,
		NewsletterOptIn: in.NewsletterOptIn,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		h.logger.Error("creating booking failed", "category", "booking", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not save booking")
		return
	}

	h.invalidateList(r.Context())
	h.logIntake(r, booking)

	// The fan-out must never delay or fail the intake response.
	go h.orch.Run(context.Background(), booking)

	writeJSONSuccess(w, http.StatusCreated, map[string]any{"id": booking.ID})
}

// logIntake records the submission with client annotations.
func (h *BookingHandler) logIntake(r *http.Request, b model.Booking) {
	ua := useragent.Parse(r.UserAgent())

	attrs := []any{
		"category", "booking",
		"booking_id", b.ID,
		"event_type", b.EventType,
		"browser", ua.Name,
		"os", ua.OS,
	}
	if ua.Mobile {
		attrs = append(attrs, "device", "mobile")
	}
	if ip := clientIP(r); ip != "" {
		if country := h.geo.Country(ip); country != "" {
			attrs = append(attrs, "country", country)
		}
	}

	h.logger.Info("booking received", attrs...)
}

// List handles GET /bookings for admins.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	bookingsJSON, err := h.listJSON(r.Context())
	if err != nil {
		h.logger.Error("listing bookings failed", "category", "booking", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not load bookings")
		return
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"bookings": bookingsJSON,
		"admin": map[string]any{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}

// listJSON returns the booking list as raw JSON, cached until the next write.
func (h *BookingHandler) listJSON(ctx context.Context) (json.RawMessage, error) {
	if cached, err := h.cache.Get(ctx, bookingListCacheKey); err == nil {
		return cached, nil
	}

	bookings, err := h.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}

	raw, err := json.Marshal(bookings)
	if err != nil {
		return nil, err
	}
	if err := h.cache.Set(ctx, bookingListCacheKey, raw, 0); err != nil {
		h.logger.Warn("caching booking list failed", "category", "cache", "error", err)
	}
	return raw, nil
}

func (h *BookingHandler) invalidateList(ctx context.Context) {
	if err := h.cache.Delete(ctx, bookingListCacheKey); err != nil {
		h.logger.Warn("invalidating booking list cache failed", "category", "cache", "error", err)
	}
}

// bookingPatch is the partial-update payload for PATCH /bookings/{id}.
// Absent fields leave the current value untouched.
type bookingPatch struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
	Responded  *bool   `json:"responded"`
}

// Update handles PATCH /bookings/{id} for admins.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var patch bookingPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.Status != nil && !model.IsValidBookingStatus(*patch.Status) {
		writeJSONError(w, http.StatusBadRequest,
			"invalid status, expected one of: "+strings.Join(model.ValidBookingStatuses, ", "))
		return
	}

	current, err := h.store.GetBooking(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("loading booking failed", "category", "booking", "booking_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not load booking")
		return
	}

	// Merge the patch over the current row, then write it in one statement.
	now := time.Now()
	params := store.UpdateBookingParams{
		ID:          id,
		Status:      current.Status,
		AdminNotes:  current.AdminNotes,
		Responded:   current.Responded,
		RespondedAt: current.RespondedAt,
		UpdatedAt:   now,
	}
	if patch.Status != nil {
		params.Status = *patch.Status
	}
	if patch.AdminNotes != nil {
		notes := strings.TrimSpace(sanitizer.Sanitize(*patch.AdminNotes))
		if notes == "" {
			params.AdminNotes = model.NullString{}
		} else {
			params.AdminNotes = model.NullStringFrom(notes)
		}
	}
	if patch.Responded != nil {
		params.Responded = *patch.Responded
		if *patch.Responded {
			if !params.RespondedAt.Valid {
				params.RespondedAt = model.NullTimeFrom(now)
			}
		} else {
			params.RespondedAt = model.NullTime{}
		}
	}

	updated, err := h.store.UpdateBooking(r.Context(), params)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("updating booking failed", "category", "booking", "booking_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not update booking")
		return
	}

	// Archiving a booking stops its scheduled follow-ups.
	if updated.Status == model.BookingStatusArchived && current.Status != model.BookingStatusArchived {
		cancelled, err := h.store.CancelTasksForBooking(r.Context(), store.CancelTasksForBookingParams{
			BookingID: id,
			UpdatedAt: now,
		})
		if err != nil {
			h.logger.Error("cancelling workflow tasks failed",
				"category", "workflow", "booking_id", id, "error", err)
		} else if cancelled > 0 {
			h.logger.Info("cancelled workflow tasks for archived booking",
				"category", "workflow", "booking_id", id, "count", cancelled)
		}
	}

	h.invalidateList(r.Context())
	writeJSONSuccess(w, http.StatusOK, map[string]any{"booking": updated})
}

// RunWorkflow handles POST /contact/{id}/workflow: a synchronous re-run
// of the automation for one booking.
func (h *BookingHandler) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := h.store.GetBooking(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("loading booking failed", "category", "booking", "booking_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not load booking")
		return
	}

	result := h.orch.Run(r.Context(), booking)
	writeJSONSuccess(w, http.StatusOK, map[string]any{"result": result})
}

// clientIP extracts the originating IP, honoring reverse-proxy headers.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx > 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
