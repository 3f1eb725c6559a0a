// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/shopbot/lib/clock"
)

// Task is a unit of scheduled work. Refresher.Refresh is a Task.
type Task func(ctx context.Context) error

// Trigger computes run times. cron.Schedule implements it.
type Trigger interface {
	Next(after time.Time) (time.Time, error)
}

// Every is a Trigger firing at a fixed interval after each check.
type Every time.Duration

// Next returns after plus the interval.
func (e Every) Next(after time.Time) (time.Time, error) {
	if e <= 0 {
		return time.Time{}, fmt.Errorf("refresh: interval must be positive, got %s", time.Duration(e))
	}
	return after.Add(time.Duration(e)), nil
}

// Scheduler runs tasks immediately or on a trigger.
type Scheduler interface {
	// RunOnce runs task now and returns its error.
	RunOnce(ctx context.Context, task Task) error

	// RunPeriodically runs task at every time trigger yields until ctx
	// is cancelled. Task errors are logged and do not stop the loop.
	// Returns nil on cancellation, or the trigger's error.
	RunPeriodically(ctx context.Context, trigger Trigger, task Task) error
}

// ClockScheduler is a Scheduler that waits on a clock.Clock.
type ClockScheduler struct {
	clock  clock.Clock
	logger *slog.Logger
}

// NewScheduler returns a ClockScheduler.
func NewScheduler(clk clock.Clock, logger *slog.Logger) *ClockScheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClockScheduler{clock: clk, logger: logger}
}

// RunOnce runs task synchronously.
func (s *ClockScheduler) RunOnce(ctx context.Context, task Task) error {
	return task(ctx)
}

// RunPeriodically blocks, running task at each trigger time. Runs never
// overlap: the next time is computed after the previous run returns,
// so a run that overshoots its slot skips the missed slots rather than
// queueing them.
func (s *ClockScheduler) RunPeriodically(ctx context.Context, trigger Trigger, task Task) error {
	for {
		now := s.clock.Now()
		next, err := trigger.Next(now)
		if err != nil {
			return fmt.Errorf("computing next run: %w", err)
		}
		s.logger.Info("next catalog refresh scheduled", "at", next, "in", next.Sub(now).Round(time.Second))

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(next.Sub(now)):
		}

		if err := task(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, ErrInProgress) {
				s.logger.Warn("scheduled refresh failed", "error", err)
			}
		}
	}
}
