// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PaymentsClient creates hosted deposit-payment links through a
// Stripe-compatible API. Stripe speaks form encoding, not JSON.
type PaymentsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPaymentsClient creates a payments client. baseURL has no trailing slash.
func NewPaymentsClient(baseURL, apiKey string) *PaymentsClient {
	return &PaymentsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// CreateDepositLink creates a one-off checkout session for a deposit and
// returns its hosted payment URL.
func (c *PaymentsClient) CreateDepositLink(ctx context.Context, amountCents int64, description string) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("deposit amount must be positive, got %d", amountCents)
	}

	data := url.Values{}
	data.Set("mode", "payment")
	data.Set("line_items[0][quantity]", "1")
	data.Set("line_items[0][price_data][currency]", "usd")
	data.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountCents, 10))
	data.Set("line_items[0][price_data][product_data][name]", description)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating deposit link: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding checkout response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("payments: no checkout url returned")
	}
	return result.URL, nil
}

// Enabled reports whether the client has credentials.
func (c *PaymentsClient) Enabled() bool { return c.apiKey != "" }

var _ PaymentsService = (*PaymentsClient)(nil)
