// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/testutil"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

func enqueue(t *testing.T, mem *store.Memory, bookingID int64, kind, payload string, runAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	err := mem.CreateTask(context.Background(), store.CreateTaskParams{
		ID:        id,
		BookingID: bookingID,
		Kind:      kind,
		Payload:   payload,
		RunAt:     runAt,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return id
}

// waitForStatus polls until the task reaches the wanted status or times out.
func waitForStatus(t *testing.T, mem *store.Memory, id, want string) model.WorkflowTask {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := mem.GetTask(context.Background(), id)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if task.Status == want {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	task, _ := mem.GetTask(context.Background(), id)
	t.Fatalf("task %s stuck in status %q, want %q", id, task.Status, want)
	return model.WorkflowTask{}
}

func TestRunnerExecutesDueTask(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(mem, testutil.TestLoggerSilent(), DefaultConfig())

	var mu sync.Mutex
	var ran []string
	r.Register("test_kind", func(_ context.Context, task model.WorkflowTask) error {
		mu.Lock()
		ran = append(ran, task.ID)
		mu.Unlock()
		return nil
	})

	id := enqueue(t, mem, 1, "test_kind", "{}", time.Now().Add(-time.Minute))
	future := enqueue(t, mem, 1, "test_kind", "{}", time.Now().Add(time.Hour))

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	if err := r.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	done := waitForStatus(t, mem, id, model.TaskStatusDone)
	if done.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", done.Attempts)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != id {
		t.Errorf("ran = %v, want only %s", ran, id)
	}

	notDue, _ := mem.GetTask(ctx, future)
	if notDue.Status != model.TaskStatusPending {
		t.Errorf("future task status = %q, want pending", notDue.Status)
	}
}

func TestRunnerRetriesThenFails(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(mem, testutil.TestLoggerSilent(), DefaultConfig())
	r.Register("flaky", func(context.Context, model.WorkflowTask) error {
		return errors.New("provider down")
	})

	id := enqueue(t, mem, 1, "flaky", "{}", time.Now().Add(-time.Minute))

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	// Each poll gives the task one more attempt.
	for i := 0; i < model.TaskMaxAttempts; i++ {
		if err := r.Poll(ctx); err != nil {
			t.Fatalf("Poll %d: %v", i, err)
		}
		// Wait for the attempt to be recorded before polling again.
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			task, _ := mem.GetTask(ctx, id)
			if task.Attempts == int64(i+1) {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	failed := waitForStatus(t, mem, id, model.TaskStatusFailed)
	if failed.Attempts != model.TaskMaxAttempts {
		t.Errorf("attempts = %d, want %d", failed.Attempts, model.TaskMaxAttempts)
	}
	if failed.LastError == "" {
		t.Error("last_error not recorded")
	}
}

func TestRunnerUnknownKindFails(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(mem, testutil.TestLoggerSilent(), DefaultConfig())

	id := enqueue(t, mem, 1, "mystery", "{}", time.Now().Add(-time.Minute))

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	for i := 0; i < model.TaskMaxAttempts; i++ {
		_ = r.Poll(ctx)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			task, _ := mem.GetTask(ctx, id)
			if task.Attempts == int64(i+1) {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	failed := waitForStatus(t, mem, id, model.TaskStatusFailed)
	if failed.LastError == "" {
		t.Error("last_error not recorded for unknown kind")
	}
}

func TestRunnerSkipsCancelledTasks(t *testing.T) {
	mem := store.NewMemory()
	r := NewRunner(mem, testutil.TestLoggerSilent(), DefaultConfig())

	var mu sync.Mutex
	ran := 0
	r.Register("test_kind", func(context.Context, model.WorkflowTask) error {
		mu.Lock()
		ran++
		mu.Unlock()
		return nil
	})

	id := enqueue(t, mem, 42, "test_kind", "{}", time.Now().Add(-time.Minute))

	ctx := context.Background()
	n, err := mem.CancelTasksForBooking(ctx, store.CancelTasksForBookingParams{
		BookingID: 42, UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CancelTasksForBooking: %v", err)
	}
	if n != 1 {
		t.Fatalf("cancelled %d tasks, want 1", n)
	}

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	if err := r.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if ran != 0 {
		t.Errorf("cancelled task ran %d times", ran)
	}
	task, _ := mem.GetTask(ctx, id)
	if task.Status != model.TaskStatusCancelled {
		t.Errorf("status = %q, want cancelled", task.Status)
	}
}

type captureEmail struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	to       []string
}

func (c *captureEmail) SendEmail(_ context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.to = append(c.to, to)
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)
	return nil
}
func (c *captureEmail) Enabled() bool { return true }

func TestNurtureEmailHandler(t *testing.T) {
	email := &captureEmail{}
	h := NurtureEmailHandler(email, testutil.TestLoggerSilent())

	payload, _ := json.Marshal(workflow.NurturePayload{
		Email: "alice@example.com", Name: "Alice", EventType: "wedding", Step: 1,
	})

	err := h(context.Background(), model.WorkflowTask{
		ID: "t1", BookingID: 7, Kind: model.TaskKindNurtureEmail, Payload: string(payload),
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(email.to) != 1 || email.to[0] != "alice@example.com" {
		t.Fatalf("to = %v", email.to)
	}
	if email.subjects[0] == "" || email.bodies[0] == "" {
		t.Error("empty subject or body")
	}
}

func TestNurtureEmailHandlerBadPayload(t *testing.T) {
	h := NurtureEmailHandler(&captureEmail{}, testutil.TestLoggerSilent())
	err := h(context.Background(), model.WorkflowTask{ID: "t1", Payload: "not json"})
	if err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestNurtureEmailHandlerUnknownStep(t *testing.T) {
	h := NurtureEmailHandler(&captureEmail{}, testutil.TestLoggerSilent())
	payload, _ := json.Marshal(workflow.NurturePayload{Email: "a@b.c", Step: 99})
	err := h(context.Background(), model.WorkflowTask{ID: "t1", Payload: string(payload)})
	if err == nil {
		t.Error("expected error for unknown step")
	}
}
