// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CalendarClient checks event-date availability against a Google
// Calendar-compatible API.
type CalendarClient struct {
	baseURL    string
	apiKey     string
	calendarID string
	client     *http.Client
}

// NewCalendarClient creates a calendar client. baseURL has no trailing slash.
func NewCalendarClient(baseURL, apiKey, calendarID string) *CalendarClient {
	return &CalendarClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		calendarID: calendarID,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// CheckAvailability reports whether the calendar has no events on the
// given date (YYYY-MM-DD). An unparseable date is an error; the caller
// treats availability as advisory either way.
func (c *CalendarClient) CheckAvailability(ctx context.Context, date string) (bool, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false, fmt.Errorf("parsing event date %q: %w", date, err)
	}

	q := url.Values{}
	q.Set("timeMin", day.Format(time.RFC3339))
	q.Set("timeMax", day.AddDate(0, 0, 1).Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("maxResults", "1")
	q.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/calendars/%s/events?%s",
		c.baseURL, url.PathEscape(c.calendarID), q.Encode())

	respBody, err := doJSON(ctx, c.client, http.MethodGet, reqURL, "", nil)
	if err != nil {
		return false, fmt.Errorf("checking availability: %w", err)
	}

	var result struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false, fmt.Errorf("decoding calendar response: %w", err)
	}

	return len(result.Items) == 0, nil
}

// Enabled reports whether the client has credentials and a calendar id.
func (c *CalendarClient) Enabled() bool { return c.apiKey != "" && c.calendarID != "" }

var _ CalendarService = (*CalendarClient)(nil)
