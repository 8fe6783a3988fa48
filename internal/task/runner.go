// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package task runs the persisted workflow task queue. A cron job polls
// for due pending tasks once a minute and hands them to a small worker
// pool; handlers are registered per task kind.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/store"
)

// Handler executes one task. A non-nil error records a failed attempt;
// the task is retried on later polls until it exhausts its attempts.
type Handler func(ctx context.Context, t model.WorkflowTask) error

// Config holds runner configuration.
type Config struct {
	Workers   int // concurrent task workers
	PollLimit int // max tasks fetched per poll
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		PollLimit: 50,
	}
}

// Runner polls the task store and executes due tasks.
type Runner struct {
	tasks    store.TaskStore
	logger   *slog.Logger
	cron     *cron.Cron
	handlers map[string]Handler
	queue    chan model.WorkflowTask
	workers  int
	limit    int
	wg       sync.WaitGroup
	done     chan struct{}

	mu       sync.Mutex
	running  bool
	inFlight map[string]struct{}
}

// NewRunner creates a runner. Handlers are registered before Start.
func NewRunner(tasks store.TaskStore, logger *slog.Logger, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.PollLimit <= 0 {
		cfg.PollLimit = 50
	}

	return &Runner{
		tasks:    tasks,
		logger:   logger,
		cron:     cron.New(),
		handlers: make(map[string]Handler),
		queue:    make(chan model.WorkflowTask, cfg.PollLimit),
		workers:  cfg.Workers,
		limit:    cfg.PollLimit,
		done:     make(chan struct{}),
		inFlight: make(map[string]struct{}),
	}
}

// Register installs the handler for a task kind. Must be called before Start.
func (r *Runner) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

// Start launches the workers and the per-minute poll.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	if _, err := r.cron.AddFunc("* * * * *", func() {
		if err := r.Poll(ctx); err != nil {
			r.logger.Error("task poll failed", "category", "workflow", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling task poll: %w", err)
	}

	r.cron.Start()
	r.logger.Info("task runner started", "workers", r.workers)
	return nil
}

// Stop halts polling and waits for in-flight tasks to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	close(r.done)
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// Poll fetches due pending tasks and enqueues them. Exported so tests and
// the poll job share one code path.
func (r *Runner) Poll(ctx context.Context) error {
	due, err := r.tasks.ListDueTasks(ctx, store.ListDueTasksParams{
		Now:   time.Now(),
		Limit: int64(r.limit),
	})
	if err != nil {
		return fmt.Errorf("listing due tasks: %w", err)
	}

	for _, t := range due {
		// A task already handed to a worker must not run twice when a
		// poll fires before it completes.
		r.mu.Lock()
		if _, busy := r.inFlight[t.ID]; busy {
			r.mu.Unlock()
			continue
		}
		r.inFlight[t.ID] = struct{}{}
		r.mu.Unlock()

		select {
		case r.queue <- t:
		default:
			r.release(t.ID)
			r.logger.Warn("task queue full, deferring to next poll",
				"category", "workflow", "task_id", t.ID)
		}
	}
	return nil
}

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			return
		case t := <-r.queue:
			r.execute(ctx, t)
			r.release(t.ID)
		}
	}
}

func (r *Runner) execute(ctx context.Context, t model.WorkflowTask) {
	now := time.Now()

	handler, ok := r.handlers[t.Kind]
	if !ok {
		r.logger.Error("no handler for task kind",
			"category", "workflow", "task_id", t.ID, "kind", t.Kind)
		r.recordFailure(ctx, t, fmt.Sprintf("no handler for kind %q", t.Kind), now)
		return
	}

	if err := handler(ctx, t); err != nil {
		r.logger.Warn("task failed",
			"category", "workflow", "task_id", t.ID, "kind", t.Kind,
			"attempt", t.Attempts+1, "error", err)
		r.recordFailure(ctx, t, err.Error(), now)
		return
	}

	if err := r.tasks.MarkTaskDone(ctx, store.MarkTaskDoneParams{ID: t.ID, UpdatedAt: now}); err != nil {
		r.logger.Error("marking task done failed",
			"category", "workflow", "task_id", t.ID, "error", err)
	}
}

func (r *Runner) recordFailure(ctx context.Context, t model.WorkflowTask, msg string, now time.Time) {
	err := r.tasks.RecordTaskFailure(ctx, store.RecordTaskFailureParams{
		ID:          t.ID,
		LastError:   msg,
		MaxAttempts: model.TaskMaxAttempts,
		UpdatedAt:   now,
	})
	if err != nil {
		r.logger.Error("recording task failure failed",
			"category", "workflow", "task_id", t.ID, "error", err)
	}
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	delete(r.inFlight, id)
	r.mu.Unlock()
}
