// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"log/slog"

	"github.com/bluestem-events/bluestem/internal/config"
)

// Registry bundles every capability the workflow and tool server can use.
// Fields are never nil; unconfigured capabilities hold Disabled values.
type Registry struct {
	Email      EmailSender
	Newsletter NewsletterService
	CRM        CRMService
	Calendar   CalendarService
	Payments   PaymentsService
	Messenger  Messenger
	Summarizer Summarizer
}

// NewDisabledRegistry returns a registry with every capability disabled.
// Used in tests and as the base for FromConfig.
func NewDisabledRegistry() *Registry {
	return &Registry{
		Email:      DisabledEmail{},
		Newsletter: DisabledNewsletter{},
		CRM:        DisabledCRM{},
		Calendar:   DisabledCalendar{},
		Payments:   DisabledPayments{},
		Messenger:  DisabledMessenger{},
		Summarizer: DisabledSummarizer{},
	}
}

// FromConfig builds the registry from environment configuration. Each
// capability is enabled solely by the presence of its credentials.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Registry {
	reg := NewDisabledRegistry()

	if cfg.EmailEnabled() {
		email := NewEmailClient(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.EmailAudienceID)
		reg.Email = email
		if cfg.NewsletterEnabled() {
			reg.Newsletter = email
		}
	}
	if cfg.CRMEnabled() {
		reg.CRM = NewCRMClient(cfg.CRMBaseURL, cfg.CRMAPIKey)
	}
	if cfg.CalendarEnabled() {
		reg.Calendar = NewCalendarClient(cfg.CalendarBaseURL, cfg.CalendarAPIKey, cfg.CalendarID)
	}
	if cfg.PaymentsEnabled() {
		reg.Payments = NewPaymentsClient(cfg.PaymentsBaseURL, cfg.PaymentsAPIKey)
	}
	if cfg.MessagingEnabled() {
		reg.Messenger = NewMessengerClient(cfg.MessagingWebhookURL)
	}
	if cfg.AIEnabled() {
		reg.Summarizer = NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	logger.Info("integrations configured",
		"email", reg.Email.Enabled(),
		"newsletter", reg.Newsletter.Enabled(),
		"crm", reg.CRM.Enabled(),
		"calendar", reg.Calendar.Enabled(),
		"payments", reg.Payments.Enabled(),
		"messaging", reg.Messenger.Enabled(),
		"ai", reg.Summarizer.Enabled(),
	)

	return reg
}
