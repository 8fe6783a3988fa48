// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

const defaultListLimit = 50

// registerTools registers the booking tools on the given server. Tools that
// depend on an external integration are only registered when that
// integration is configured.
func (s *Server) registerTools(srv *server.MCPServer) {

	// ----- Booking tools (always available) -----

	srv.AddTool(
		mcp.NewTool("list_bookings",
			mcp.WithDescription(
				"List event booking inquiries, newest first. Optionally filter by "+
					"status (pending, in_progress, resolved, archived) and limit the "+
					"number of results. Use this to see the current intake queue.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Only return bookings with this status"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of bookings to return (default 50, max 200)"),
			),
		),
		s.handleListBookings,
	)

	srv.AddTool(
		mcp.NewTool("get_booking",
			mcp.WithDescription(
				"Get the full details of a single booking inquiry by id, including "+
					"contact info, event details, status, admin notes, and its current "+
					"lead score and tier.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Booking id"),
			),
		),
		s.handleGetBooking,
	)

	srv.AddTool(
		mcp.NewTool("update_booking_status",
			mcp.WithDescription(
				"Update the status of a booking and optionally set admin notes. "+
					"Valid statuses: pending, in_progress, resolved, archived. Archiving "+
					"a booking cancels any scheduled follow-up emails.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Booking id"),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New status for the booking"),
			),
			mcp.WithString("admin_notes",
				mcp.Description("Replacement admin notes (omit to leave unchanged)"),
			),
		),
		s.handleUpdateBookingStatus,
	)

	srv.AddTool(
		mcp.NewTool("score_lead",
			mcp.WithDescription(
				"Score a booking as a sales lead based on budget, event type, and "+
					"guest count. Returns a numeric score and a tier (high, medium, low). "+
					"High-tier leads warrant a personal follow-up within the hour.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Booking id to score"),
			),
		),
		s.handleScoreLead,
	)

	srv.AddTool(
		mcp.NewTool("run_workflow",
			mcp.WithDescription(
				"Run the full intake workflow for a booking: score the lead, send the "+
					"welcome email, sync the contact to the CRM, check calendar "+
					"availability, notify the team, and schedule the nurture sequence. "+
					"Steps whose integrations are not configured are skipped. Returns "+
					"the workflow result including any per-step errors.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Booking id to run the workflow for"),
			),
		),
		s.handleRunWorkflow,
	)

	// ----- Integration tools (registered only when configured) -----

	if s.reg.Calendar.Enabled() {
		srv.AddTool(
			mcp.NewTool("check_availability",
				mcp.WithDescription(
					"Check whether the venue calendar is free on a given date. "+
						"Returns available=true when no events are scheduled that day.",
				),
				mcp.WithToolAnnotation(readOnlyAnnotation()),
				mcp.WithString("date",
					mcp.Required(),
					mcp.Description("Date to check, formatted YYYY-MM-DD"),
				),
			),
			s.handleCheckAvailability,
		)
	}

	if s.reg.Email.Enabled() {
		srv.AddTool(
			mcp.NewTool("send_email",
				mcp.WithDescription(
					"Send an email from the business address. The body is HTML.",
				),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithString("to",
					mcp.Required(),
					mcp.Description("Recipient email address"),
				),
				mcp.WithString("subject",
					mcp.Required(),
					mcp.Description("Email subject line"),
				),
				mcp.WithString("body",
					mcp.Required(),
					mcp.Description("HTML email body"),
				),
			),
			s.handleSendEmail,
		)
	}

	if s.reg.Payments.Enabled() {
		srv.AddTool(
			mcp.NewTool("create_deposit_link",
				mcp.WithDescription(
					"Create a hosted payment link for an event deposit. Returns the "+
						"checkout URL to share with the client.",
				),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithNumber("amount_cents",
					mcp.Required(),
					mcp.Description("Deposit amount in cents (e.g. 50000 for $500)"),
				),
				mcp.WithString("description",
					mcp.Required(),
					mcp.Description("Line-item description shown at checkout"),
				),
			),
			s.handleCreateDepositLink,
		)
	}

	if s.reg.Messenger.Enabled() {
		srv.AddTool(
			mcp.NewTool("post_team_message",
				mcp.WithDescription(
					"Post a message to the team chat channel.",
				),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithString("text",
					mcp.Required(),
					mcp.Description("Message text to post"),
				),
			),
			s.handlePostTeamMessage,
		)
	}
}

// handleListBookings lists bookings with optional status filtering.
func (s *Server) handleListBookings(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	status := optionalString(request, "status")
	if status != "" && !model.IsValidBookingStatus(status) {
		return toolError("Invalid status %q. Valid statuses: %s",
			status, strings.Join(model.ValidBookingStatuses, ", "))
	}
	limit := clamp(optionalInt(request, "limit", defaultListLimit), 1, 200)

	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return toolError("Failed to list bookings: %v", err)
	}

	type bookingSummary struct {
		ID         int64  `json:"id"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Email      string `json:"email"`
		EventType  string `json:"eventType,omitempty"`
		EventDate  string `json:"eventDate,omitempty"`
		GuestCount int64  `json:"guestCount,omitempty"`
		Budget     string `json:"budget,omitempty"`
		Location   string `json:"location,omitempty"`
		Status     string `json:"status"`
		Responded  bool   `json:"responded"`
		CreatedAt  string `json:"createdAt"`
	}

	items := make([]bookingSummary, 0, limit)
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		items = append(items, bookingSummary{
			ID:         b.ID,
			FirstName:  b.FirstName,
			LastName:   b.LastName,
			Email:      b.Email,
			EventType:  b.EventType,
			EventDate:  b.EventDate,
			GuestCount: b.GuestCount,
			Budget:     b.Budget,
			Location:   b.Location,
			Status:     b.Status,
			Responded:  b.Responded,
			CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		})
		if len(items) >= limit {
			break
		}
	}

	return successJSON(items)
}

// handleGetBooking returns one booking with its lead score attached.
func (s *Server) handleGetBooking(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireInt(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return toolError("Booking %d not found", id)
	}

	score, tier := workflow.Score(b)
	return successJSON(map[string]any{
		"booking":    b,
		"lead_score": score,
		"lead_tier":  tier,
	})
}

// handleUpdateBookingStatus changes status and optionally admin notes.
func (s *Server) handleUpdateBookingStatus(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireInt(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	status, err := requireString(request, "status")
	if err != nil {
		return toolError("%v", err)
	}
	if !model.IsValidBookingStatus(status) {
		return toolError("Invalid status %q. Valid statuses: %s",
			status, strings.Join(model.ValidBookingStatuses, ", "))
	}

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return toolError("Booking %d not found", id)
	}

	notes := current.AdminNotes
	if v := optionalString(request, "admin_notes"); v != "" {
		notes = model.NullStringFrom(v)
	}

	updated, err := s.store.UpdateBooking(ctx, store.UpdateBookingParams{
		ID:          id,
		Status:      status,
		AdminNotes:  notes,
		Responded:   current.Responded,
		RespondedAt: current.RespondedAt,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return toolError("Failed to update booking %d: %v", id, err)
	}

	// Archiving implies no more automated follow-up.
	if status == model.BookingStatusArchived && current.Status != model.BookingStatusArchived {
		cancelled, err := s.store.CancelTasksForBooking(ctx, store.CancelTasksForBookingParams{
			BookingID: id,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			s.logger.Error("cancelling tasks for archived booking", "booking_id", id, "error", err)
		} else if cancelled > 0 {
			s.logger.Info("cancelled scheduled tasks", "booking_id", id, "count", cancelled)
		}
	}

	return successJSON(map[string]any{"booking": updated})
}

// handleScoreLead scores a booking without side effects.
func (s *Server) handleScoreLead(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireInt(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return toolError("Booking %d not found", id)
	}

	score, tier := workflow.Score(b)
	return successJSON(map[string]any{
		"booking_id": b.ID,
		"lead_score": score,
		"lead_tier":  tier,
	})
}

// handleRunWorkflow runs the intake workflow synchronously.
func (s *Server) handleRunWorkflow(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireInt(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return toolError("Booking %d not found", id)
	}

	result := s.orch.Run(ctx, b)
	return successJSON(result)
}

// handleCheckAvailability checks the venue calendar for a date.
func (s *Server) handleCheckAvailability(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	date, err := requireString(request, "date")
	if err != nil {
		return toolError("%v", err)
	}

	available, err := s.reg.Calendar.CheckAvailability(ctx, date)
	if err != nil {
		return toolError("Availability check failed: %v", err)
	}

	return successJSON(map[string]any{
		"date":      date,
		"available": available,
	})
}

// handleSendEmail sends a one-off email through the configured provider.
func (s *Server) handleSendEmail(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	to, err := requireString(request, "to")
	if err != nil {
		return toolError("%v", err)
	}
	subject, err := requireString(request, "subject")
	if err != nil {
		return toolError("%v", err)
	}
	body, err := requireString(request, "body")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.reg.Email.SendEmail(ctx, to, subject, body); err != nil {
		return toolError("Sending email failed: %v", err)
	}

	s.logger.Info("email sent via tool", "to", to, "subject", subject)
	return successJSON(map[string]any{"sent": true, "to": to})
}

// handleCreateDepositLink creates a hosted checkout link.
func (s *Server) handleCreateDepositLink(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	amount, err := requireInt(request, "amount_cents")
	if err != nil {
		return toolError("%v", err)
	}
	description, err := requireString(request, "description")
	if err != nil {
		return toolError("%v", err)
	}
	if amount <= 0 {
		return toolError("amount_cents must be positive, got %d", amount)
	}

	url, err := s.reg.Payments.CreateDepositLink(ctx, amount, description)
	if err != nil {
		return toolError("Creating deposit link failed: %v", err)
	}

	return successJSON(map[string]any{"url": url, "amount_cents": amount})
}

// handlePostTeamMessage posts to the team channel webhook.
func (s *Server) handlePostTeamMessage(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	text, err := requireString(request, "text")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.reg.Messenger.PostMessage(ctx, text); err != nil {
		return toolError("Posting message failed: %v", err)
	}

	return successJSON(map[string]any{"posted": true})
}
