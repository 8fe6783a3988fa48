// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"fmt"
	"net/http"
)

// MessengerClient posts to a Slack-style incoming webhook.
type MessengerClient struct {
	webhookURL string
	client     *http.Client
}

// NewMessengerClient creates a messenger for the given webhook URL.
func NewMessengerClient(webhookURL string) *MessengerClient {
	return &MessengerClient{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// PostMessage posts a plain-text message to the team channel.
func (c *MessengerClient) PostMessage(ctx context.Context, text string) error {
	body := map[string]string{"text": text}
	if _, err := doJSON(ctx, c.client, http.MethodPost, c.webhookURL, "", body); err != nil {
		return fmt.Errorf("posting team message: %w", err)
	}
	return nil
}

// Enabled reports whether a webhook URL is set.
func (c *MessengerClient) Enabled() bool { return c.webhookURL != "" }

var _ Messenger = (*MessengerClient)(nil)
