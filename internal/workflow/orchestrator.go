// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
)

// Deposit requested from high-tier leads when payments are configured.
const depositAmountCents = 50000

// Result summarizes one workflow run. It is logged and returned by the
// manual re-run endpoint, never persisted on the booking.
type Result struct {
	BookingID         int64    `json:"booking_id"`
	LeadScore         int      `json:"lead_score"`
	LeadTier          string   `json:"lead_tier"`
	EmailSent         bool     `json:"email_sent"`
	CRMSynced         bool     `json:"crm_synced"`
	CalendarChecked   bool     `json:"calendar_checked"`
	CalendarAvailable bool     `json:"calendar_available"`
	MessagePosted     bool     `json:"message_posted"`
	Subscribed        bool     `json:"subscribed"`
	NurtureScheduled  int      `json:"nurture_scheduled"`
	Errors            []string `json:"errors"`
	Success           bool     `json:"success"`
}

// Orchestrator fans a new booking out to the configured integrations.
// Every step is independent; failures are collected, never raised to the
// caller, and never fail the booking itself.
type Orchestrator struct {
	tasks  store.TaskStore
	reg    *integration.Registry
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(tasks store.TaskStore, reg *integration.Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{tasks: tasks, reg: reg, logger: logger}
}

// Run executes the full workflow for a booking and returns the summary.
func (o *Orchestrator) Run(ctx context.Context, b model.Booking) Result {
	res := Result{BookingID: b.ID, Errors: []string{}}

	// Lead scoring feeds the CRM and messaging steps, so it runs first.
	res.LeadScore, res.LeadTier = Score(b)

	o.sendWelcomeEmail(ctx, b, &res)
	o.syncCRM(ctx, b, &res)
	o.checkCalendar(ctx, b, &res)
	o.postTeamMessage(ctx, b, &res)
	o.subscribeNewsletter(ctx, b, &res)
	o.scheduleNurture(ctx, b, &res)

	// A run counts as a success when nothing failed, or when at least one
	// of the two customer-facing outcomes (email, CRM) landed.
	res.Success = len(res.Errors) == 0 || res.EmailSent || res.CRMSynced

	o.logger.Info("workflow run complete",
		"category", "workflow",
		"booking_id", b.ID,
		"lead_score", res.LeadScore,
		"lead_tier", res.LeadTier,
		"email_sent", res.EmailSent,
		"crm_synced", res.CRMSynced,
		"nurture_scheduled", res.NurtureScheduled,
		"errors", len(res.Errors),
		"success", res.Success,
	)
	return res
}

func (o *Orchestrator) sendWelcomeEmail(ctx context.Context, b model.Booking, res *Result) {
	if !o.reg.Email.Enabled() {
		return
	}

	subject := "We received your inquiry — Bluestem Events"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for reaching out about your %s. "+
			"We review every inquiry personally and will get back to you within "+
			"one business day.</p><p>— The Bluestem Events team</p>",
		html.EscapeString(b.FirstName), html.EscapeString(eventTypeOr(b.EventType, "event")))

	if err := o.reg.Email.SendEmail(ctx, b.Email, subject, body); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("email: %v", err))
		return
	}
	res.EmailSent = true
}

func (o *Orchestrator) syncCRM(ctx context.Context, b model.Booking, res *Result) {
	if !o.reg.CRM.Enabled() {
		return
	}

	contactID, err := o.reg.CRM.SyncContact(ctx, integration.Contact{
		Email:     b.Email,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Phone:     b.Phone,
		EventType: b.EventType,
		LeadScore: res.LeadScore,
		LeadTier:  res.LeadTier,
	})
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("crm: %v", err))
		return
	}
	res.CRMSynced = true

	// High-value leads also get a deal and a follow-up task.
	if res.LeadScore < highScoreThreshold {
		return
	}
	deal := integration.Deal{
		Name:      fmt.Sprintf("%s — %s", b.FullName(), eventTypeOr(b.EventType, "event")),
		EventDate: b.EventDate,
		Budget:    b.Budget,
	}
	if err := o.reg.CRM.CreateDeal(ctx, contactID, deal); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("crm deal: %v", err))
	}
	note := fmt.Sprintf("Call %s about their %s (lead score %d)",
		b.FullName(), eventTypeOr(b.EventType, "event"), res.LeadScore)
	if err := o.reg.CRM.CreateFollowUpTask(ctx, contactID, note); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("crm task: %v", err))
	}
}

func (o *Orchestrator) checkCalendar(ctx context.Context, b model.Booking, res *Result) {
	if !o.reg.Calendar.Enabled() || strings.TrimSpace(b.EventDate) == "" {
		return
	}

	available, err := o.reg.Calendar.CheckAvailability(ctx, b.EventDate)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("calendar: %v", err))
		return
	}
	res.CalendarChecked = true
	res.CalendarAvailable = available
}

func (o *Orchestrator) postTeamMessage(ctx context.Context, b model.Booking, res *Result) {
	if !o.reg.Messenger.Enabled() {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s New inquiry: %s — %s",
		priorityMarker(res.LeadTier), b.FullName(), eventTypeOr(b.EventType, "unspecified event"))
	if b.EventDate != "" {
		fmt.Fprintf(&sb, " on %s", b.EventDate)
	}
	if b.GuestCount > 0 {
		fmt.Fprintf(&sb, ", %d guests", b.GuestCount)
	}
	if b.Budget != "" {
		fmt.Fprintf(&sb, ", budget %s", b.Budget)
	}
	fmt.Fprintf(&sb, " (score %d, %s)", res.LeadScore, res.LeadTier)

	if res.CalendarChecked {
		if res.CalendarAvailable {
			sb.WriteString(" — date looks open")
		} else {
			sb.WriteString(" — date conflicts with the calendar")
		}
	}

	// High-tier leads get a ready-to-send deposit link when payments are on.
	if res.LeadTier == TierHigh && o.reg.Payments.Enabled() {
		url, err := o.reg.Payments.CreateDepositLink(ctx, depositAmountCents,
			fmt.Sprintf("Event deposit — %s", b.FullName()))
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("payments: %v", err))
		} else {
			fmt.Fprintf(&sb, "\nDeposit link: %s", url)
		}
	}

	if o.reg.Summarizer.Enabled() {
		brief, err := o.reg.Summarizer.LeadBrief(ctx, b)
		if err != nil {
			// The brief is decoration; a failure is logged, not recorded.
			o.logger.Warn("lead brief generation failed",
				"category", "integration", "booking_id", b.ID, "error", err)
		} else if brief != "" {
			sb.WriteString("\n" + brief)
		}
	}

	if err := o.reg.Messenger.PostMessage(ctx, sb.String()); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("messaging: %v", err))
		return
	}
	res.MessagePosted = true
}

func (o *Orchestrator) subscribeNewsletter(ctx context.Context, b model.Booking, res *Result) {
	if !b.NewsletterOptIn || !o.reg.Newsletter.Enabled() {
		return
	}

	if err := o.reg.Newsletter.Subscribe(ctx, b.Email, b.FullName()); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("newsletter: %v", err))
		return
	}
	res.Subscribed = true
}

func (o *Orchestrator) scheduleNurture(ctx context.Context, b model.Booking, res *Result) {
	scheduled, err := ScheduleNurture(ctx, o.tasks, b, time.Now())
	res.NurtureScheduled = scheduled
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("nurture: %v", err))
	}
}

func priorityMarker(tier string) string {
	switch tier {
	case TierHigh:
		return "🔥"
	case TierMedium:
		return "⭐"
	default:
		return "📋"
	}
}

func eventTypeOr(eventType, fallback string) string {
	if strings.TrimSpace(eventType) == "" {
		return fallback
	}
	return eventType
}

