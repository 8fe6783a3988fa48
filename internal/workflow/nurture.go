// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
)

// NurtureStep is one email in the follow-up sequence. Bodies are markdown
// with {{name}} and {{event_type}} placeholders, rendered to HTML at send
// time.
type NurtureStep struct {
	Step    int
	Delay   time.Duration
	Subject string
	Body    string
}

// NurtureSequence is the default three-step follow-up schedule.
var NurtureSequence = []NurtureStep{
	{
		Step:    1,
		Delay:   24 * time.Hour,
		Subject: "Planning your {{event_type}} — a few ideas",
		Body: `Hi {{name}},

Thanks again for reaching out about your {{event_type}}. While we put
together a proposal, here are a few things past clients found helpful:

- **Venue first.** Dates fill up fast, locking the venue anchors everything else.
- **Guest list range.** A rough min/max is enough for realistic quotes.
- **Must-haves vs nice-to-haves.** Tell us the two or three things that matter most.

We'll be in touch shortly with next steps.

— The Bluestem Events team`,
	},
	{
		Step:    2,
		Delay:   3 * 24 * time.Hour,
		Subject: "Checking in on your event plans",
		Body: `Hi {{name}},

Just checking in — do you have any questions about planning your
{{event_type}}? We're happy to jump on a quick call to talk through
options and budget.

Reply to this email any time.

— The Bluestem Events team`,
	},
	{
		Step:    3,
		Delay:   7 * 24 * time.Hour,
		Subject: "Still thinking it over?",
		Body: `Hi {{name}},

No pressure at all — planning takes time. If your {{event_type}} is
still on the horizon we'd love to help when you're ready. Our calendar
for the season is filling up, so reach out when the timing works.

— The Bluestem Events team`,
	},
}

// NurturePayload is the JSON stored in a nurture task's payload column.
type NurturePayload struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	EventType string `json:"event_type"`
	Step      int    `json:"step"`
}

// ScheduleNurture enqueues the full nurture sequence for a booking.
// Returns how many steps were scheduled.
func ScheduleNurture(ctx context.Context, tasks store.TaskStore, b model.Booking, now time.Time) (int, error) {
	scheduled := 0
	for _, step := range NurtureSequence {
		payload, err := json.Marshal(NurturePayload{
			Email:     b.Email,
			Name:      b.FirstName,
			EventType: b.EventType,
			Step:      step.Step,
		})
		if err != nil {
			return scheduled, fmt.Errorf("encoding nurture payload: %w", err)
		}

		err = tasks.CreateTask(ctx, store.CreateTaskParams{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Kind:      model.TaskKindNurtureEmail,
			Payload:   string(payload),
			RunAt:     now.Add(step.Delay),
			CreatedAt: now,
		})
		if err != nil {
			return scheduled, fmt.Errorf("scheduling nurture step %d: %w", step.Step, err)
		}
		scheduled++
	}
	return scheduled, nil
}

// StepByNumber returns the nurture step with the given number.
func StepByNumber(n int) (NurtureStep, bool) {
	for _, step := range NurtureSequence {
		if step.Step == n {
			return step, true
		}
	}
	return NurtureStep{}, false
}

// RenderNurtureEmail fills placeholders and renders the markdown body to
// HTML. Returns the subject and HTML body.
func RenderNurtureEmail(step NurtureStep, p NurturePayload) (string, string, error) {
	eventType := p.EventType
	if strings.TrimSpace(eventType) == "" {
		eventType = "event"
	}

	replacer := strings.NewReplacer(
		"{{name}}", p.Name,
		"{{event_type}}", eventType,
	)
	subject := replacer.Replace(step.Subject)
	markdown := replacer.Replace(step.Body)

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &html); err != nil {
		return "", "", fmt.Errorf("rendering nurture email: %w", err)
	}
	return subject, html.String(), nil
}
