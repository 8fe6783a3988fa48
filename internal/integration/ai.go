// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/bluestem-events/bluestem/internal/model"
)

const leadBriefSystemPrompt = "You are an assistant for a small event-planning " +
	"business. Given an inquiry, write a 2-3 sentence brief for the team: what " +
	"the event is, why it matters, and one suggested next step. Plain text only."

// OpenAISummarizer writes short lead briefs with the OpenAI API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer creates a summarizer using the given model name.
func NewOpenAISummarizer(apiKey, modelName string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
	}
}

// LeadBrief generates a short summary of the booking for the team channel.
func (s *OpenAISummarizer) LeadBrief(ctx context.Context, b model.Booking) (string, error) {
	prompt := fmt.Sprintf(
		"New inquiry from %s (%s).\nEvent type: %s\nDate: %s\nGuests: %d\nBudget: %s\nMessage: %s",
		b.FullName(), b.Email,
		orUnknown(b.EventType), orUnknown(b.EventDate), b.GuestCount,
		orUnknown(b.Budget), b.Message,
	)

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(leadBriefSystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		return "", fmt.Errorf("generating lead brief: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("lead brief: no choices returned")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Enabled reports whether the summarizer is configured.
func (s *OpenAISummarizer) Enabled() bool { return true }

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

var _ Summarizer = (*OpenAISummarizer)(nil)
