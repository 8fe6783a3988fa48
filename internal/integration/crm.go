// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// CRMClient upserts contacts and opens deals through a HubSpot-compatible
// API.
type CRMClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCRMClient creates a CRM client. baseURL has no trailing slash.
func NewCRMClient(baseURL, apiKey string) *CRMClient {
	return &CRMClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// SyncContact creates or updates the contact keyed by email and returns
// the provider's contact id.
func (c *CRMClient) SyncContact(ctx context.Context, contact Contact) (string, error) {
	body := map[string]any{
		"properties": map[string]any{
			"email":      contact.Email,
			"firstname":  contact.FirstName,
			"lastname":   contact.LastName,
			"phone":      contact.Phone,
			"event_type": contact.EventType,
			"lead_score": strconv.Itoa(contact.LeadScore),
			"lead_tier":  contact.LeadTier,
		},
	}

	respBody, err := doJSON(ctx, c.client, http.MethodPost,
		c.baseURL+"/crm/v3/objects/contacts/upsert", c.apiKey, body)
	if err != nil {
		return "", fmt.Errorf("syncing contact: %w", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding contact response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("crm: no contact id returned")
	}
	return result.ID, nil
}

// CreateDeal opens a deal associated with the contact.
func (c *CRMClient) CreateDeal(ctx context.Context, contactID string, d Deal) error {
	body := map[string]any{
		"properties": map[string]any{
			"dealname":   d.Name,
			"event_date": d.EventDate,
			"budget":     d.Budget,
			"dealstage":  "appointmentscheduled",
		},
		"associations": []map[string]any{
			{"to": map[string]string{"id": contactID}, "types": []map[string]any{
				{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 3},
			}},
		},
	}

	if _, err := doJSON(ctx, c.client, http.MethodPost,
		c.baseURL+"/crm/v3/objects/deals", c.apiKey, body); err != nil {
		return fmt.Errorf("creating deal: %w", err)
	}
	return nil
}

// CreateFollowUpTask records a follow-up task against the contact.
func (c *CRMClient) CreateFollowUpTask(ctx context.Context, contactID, note string) error {
	body := map[string]any{
		"properties": map[string]any{
			"hs_task_subject": note,
			"hs_task_status":  "NOT_STARTED",
			"hs_task_type":    "TODO",
		},
		"associations": []map[string]any{
			{"to": map[string]string{"id": contactID}, "types": []map[string]any{
				{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 204},
			}},
		},
	}

	if _, err := doJSON(ctx, c.client, http.MethodPost,
		c.baseURL+"/crm/v3/objects/tasks", c.apiKey, body); err != nil {
		return fmt.Errorf("creating follow-up task: %w", err)
	}
	return nil
}

// Enabled reports whether the client has credentials.
func (c *CRMClient) Enabled() bool { return c.apiKey != "" }

var _ CRMService = (*CRMClient)(nil)
