// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

// NurtureEmailHandler sends one step of the nurture sequence. The payload
// carries the recipient and step number; the body is rendered at send time
// so template fixes apply to already-queued steps.
func NurtureEmailHandler(email integration.EmailSender, logger *slog.Logger) Handler {
	return func(ctx context.Context, t model.WorkflowTask) error {
		var p workflow.NurturePayload
		if err := json.Unmarshal([]byte(t.Payload), &p); err != nil {
			return fmt.Errorf("decoding nurture payload: %w", err)
		}

		step, ok := workflow.StepByNumber(p.Step)
		if !ok {
			return fmt.Errorf("unknown nurture step %d", p.Step)
		}

		subject, body, err := workflow.RenderNurtureEmail(step, p)
		if err != nil {
			return err
		}

		if err := email.SendEmail(ctx, p.Email, subject, body); err != nil {
			return fmt.Errorf("sending nurture step %d: %w", p.Step, err)
		}

		logger.Info("nurture email sent",
			"category", "workflow",
			"booking_id", t.BookingID,
			"step", p.Step,
			"to", p.Email,
		)
		return nil
	}
}
