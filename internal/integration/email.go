// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"fmt"
	"net/http"
)

// EmailClient sends transactional email and manages the newsletter
// audience through a Resend-compatible API.
type EmailClient struct {
	baseURL    string
	apiKey     string
	from       string
	audienceID string
	client     *http.Client
}

// NewEmailClient creates an email client. baseURL has no trailing slash.
func NewEmailClient(baseURL, apiKey, from, audienceID string) *EmailClient {
	return &EmailClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		audienceID: audienceID,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// SendEmail delivers a single HTML email.
func (c *EmailClient) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	body := map[string]any{
		"from":    c.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	}

	if _, err := doJSON(ctx, c.client, http.MethodPost, c.baseURL+"/emails", c.apiKey, body); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// Subscribe adds a contact to the newsletter audience. Subscribing an
// address that is already on the list is not an error upstream.
func (c *EmailClient) Subscribe(ctx context.Context, email, name string) error {
	if c.audienceID == "" {
		return ErrNotConfigured
	}

	body := map[string]any{
		"email":        email,
		"first_name":   name,
		"unsubscribed": false,
	}

	url := fmt.Sprintf("%s/audiences/%s/contacts", c.baseURL, c.audienceID)
	if _, err := doJSON(ctx, c.client, http.MethodPost, url, c.apiKey, body); err != nil {
		return fmt.Errorf("subscribing to newsletter: %w", err)
	}
	return nil
}

// Enabled reports whether the client has credentials.
func (c *EmailClient) Enabled() bool { return c.apiKey != "" }

var (
	_ EmailSender       = (*EmailClient)(nil)
	_ NewsletterService = (*EmailClient)(nil)
)
