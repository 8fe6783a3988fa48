// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package integration holds the clients for third-party services the
// workflow fans out to: transactional email, newsletter, CRM, calendar,
// payments, team messaging and the AI lead-brief summarizer. Every
// capability is an interface with a Disabled implementation; which one a
// deployment gets is decided purely by configuration.
package integration

import (
	"context"
	"errors"

	"github.com/bluestem-events/bluestem/internal/model"
)

// ErrNotConfigured is returned by disabled capabilities.
var ErrNotConfigured = errors.New("integration: not configured")

// EmailSender delivers transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
	Enabled() bool
}

// NewsletterService manages mailing-list membership.
type NewsletterService interface {
	Subscribe(ctx context.Context, email, name string) error
	Enabled() bool
}

// Contact is the subset of booking data synced to the CRM.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	EventType string
	LeadScore int
	LeadTier  string
}

// Deal describes a CRM deal opened for a high-value lead.
type Deal struct {
	Name      string
	EventDate string
	Budget    string
}

// CRMService upserts contacts and tracks high-value leads.
type CRMService interface {
	SyncContact(ctx context.Context, c Contact) (contactID string, err error)
	CreateDeal(ctx context.Context, contactID string, d Deal) error
	CreateFollowUpTask(ctx context.Context, contactID, note string) error
	Enabled() bool
}

// CalendarService answers availability questions for event dates.
type CalendarService interface {
	CheckAvailability(ctx context.Context, date string) (available bool, err error)
	Enabled() bool
}

// PaymentsService creates deposit payment links.
type PaymentsService interface {
	CreateDepositLink(ctx context.Context, amountCents int64, description string) (url string, err error)
	Enabled() bool
}

// Messenger posts notifications to the team channel.
type Messenger interface {
	PostMessage(ctx context.Context, text string) error
	Enabled() bool
}

// Summarizer produces a short AI-written brief about a new lead.
type Summarizer interface {
	LeadBrief(ctx context.Context, b model.Booking) (string, error)
	Enabled() bool
}

// Disabled implementations. Each returns ErrNotConfigured so callers can
// distinguish "skipped" from a real provider failure.

type DisabledEmail struct{}

func (DisabledEmail) SendEmail(context.Context, string, string, string) error {
	return ErrNotConfigured
}
func (DisabledEmail) Enabled() bool { return false }

type DisabledNewsletter struct{}

func (DisabledNewsletter) Subscribe(context.Context, string, string) error {
	return ErrNotConfigured
}
func (DisabledNewsletter) Enabled() bool { return false }

type DisabledCRM struct{}

func (DisabledCRM) SyncContact(context.Context, Contact) (string, error) {
	return "", ErrNotConfigured
}
func (DisabledCRM) CreateDeal(context.Context, string, Deal) error      { return ErrNotConfigured }
func (DisabledCRM) CreateFollowUpTask(context.Context, string, string) error {
	return ErrNotConfigured
}
func (DisabledCRM) Enabled() bool { return false }

type DisabledCalendar struct{}

func (DisabledCalendar) CheckAvailability(context.Context, string) (bool, error) {
	return false, ErrNotConfigured
}
func (DisabledCalendar) Enabled() bool { return false }

type DisabledPayments struct{}

func (DisabledPayments) CreateDepositLink(context.Context, int64, string) (string, error) {
	return "", ErrNotConfigured
}
func (DisabledPayments) Enabled() bool { return false }

type DisabledMessenger struct{}

func (DisabledMessenger) PostMessage(context.Context, string) error { return ErrNotConfigured }
func (DisabledMessenger) Enabled() bool                             { return false }

type DisabledSummarizer struct{}

func (DisabledSummarizer) LeadBrief(context.Context, model.Booking) (string, error) {
	return "", ErrNotConfigured
}
func (DisabledSummarizer) Enabled() bool { return false }
