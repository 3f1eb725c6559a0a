// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/cron"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/testutil"
)

func at(day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 0, 0, 0, time.UTC)
}

func TestRunPeriodicallyDaily(t *testing.T) {
	fakeClock := clock.Fake(at(18, 1))
	scheduler := NewScheduler(fakeClock, nil)
	schedule, err := cron.Parse("0 3 * * *")
	if err != nil {
		t.Fatal(err)
	}

	runs := make(chan time.Time, 1)
	task := func(ctx context.Context) error {
		runs <- fakeClock.Now()
		return errors.New("catalog API down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.RunPeriodically(ctx, schedule, task) }()

	fakeClock.WaitForTimers(1)
	fakeClock.AdvanceTo(at(18, 2))
	select {
	case ran := <-runs:
		t.Fatalf("task ran early at %v", ran)
	default:
	}

	fakeClock.AdvanceTo(at(18, 3))
	if ran := testutil.RequireReceive(t, runs, 5*time.Second, "first daily run"); !ran.Equal(at(18, 3)) {
		t.Errorf("first run at %v, want %v", ran, at(18, 3))
	}

	// A failing task does not stop the schedule.
	fakeClock.WaitForTimers(1)
	fakeClock.AdvanceTo(at(19, 3))
	if ran := testutil.RequireReceive(t, runs, 5*time.Second, "second daily run"); !ran.Equal(at(19, 3)) {
		t.Errorf("second run at %v, want %v", ran, at(19, 3))
	}

	fakeClock.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "scheduler exit"); err != nil {
		t.Errorf("RunPeriodically returned %v after cancel, want nil", err)
	}
}

func TestRunPeriodicallyEvery(t *testing.T) {
	fakeClock := clock.Fake(at(18, 0))
	scheduler := NewScheduler(fakeClock, nil)

	runs := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- scheduler.RunPeriodically(ctx, Every(6*time.Hour), func(context.Context) error {
			runs <- struct{}{}
			return ErrInProgress
		})
	}()

	for range 3 {
		fakeClock.WaitForTimers(1)
		fakeClock.Advance(6 * time.Hour)
		testutil.RequireReceive(t, runs, 5*time.Second, "interval run")
	}
	fakeClock.WaitForTimers(1)
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "scheduler exit")
}

func TestRunPeriodicallyTriggerError(t *testing.T) {
	scheduler := NewScheduler(clock.Fake(at(18, 0)), nil)
	impossible, err := cron.Parse("0 0 31 2 *")
	if err != nil {
		t.Fatal(err)
	}
	task := func(context.Context) error {
		t.Error("task ran for an impossible schedule")
		return nil
	}

	if err := scheduler.RunPeriodically(context.Background(), impossible, task); err == nil {
		t.Error("impossible schedule should return an error")
	}
	if err := scheduler.RunPeriodically(context.Background(), Every(0), task); err == nil {
		t.Error("zero interval should return an error")
	}
}

func TestRunOnce(t *testing.T) {
	scheduler := NewScheduler(clock.Fake(at(18, 0)), nil)
	want := errors.New("startup refresh failed")
	ran := false
	err := scheduler.RunOnce(context.Background(), func(context.Context) error {
		ran = true
		return want
	})
	if !ran || !errors.Is(err, want) {
		t.Errorf("RunOnce ran=%v err=%v", ran, err)
	}
}

func TestSchedulerDrivesRefresher(t *testing.T) {
	fakeClock := clock.Fake(at(18, 2))
	cache := imagecache.New()
	refresher := New(Config{
		Fetcher:  &stubFetcher{results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}, {snapshot: snapshotOf("Glider", 900)}}},
		Renderer: &stubRenderer{},
		Cache:    cache,
		Clock:    fakeClock,
	})
	scheduler := NewScheduler(fakeClock, nil)

	if err := scheduler.RunOnce(context.Background(), refresher.Refresh); err != nil {
		t.Fatal(err)
	}
	if string(cache.Get().Data) != "jpeg #1 of Axe" {
		t.Fatalf("startup refresh cached %q", cache.Get().Data)
	}

	schedule, err := cron.Daily(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.RunPeriodically(ctx, schedule, refresher.Refresh) }()

	fakeClock.WaitForTimers(1)
	fakeClock.AdvanceTo(at(18, 3))
	fakeClock.WaitForTimers(1)
	if string(cache.Get().Data) != "jpeg #2 of Glider" {
		t.Errorf("scheduled refresh cached %q", cache.Get().Data)
	}
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "scheduler exit")
}
