// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by the refresh scheduler,
// the Matrix sync backoff and the catalog fetcher.
//
// Production code receives Real(). Tests receive Fake(), whose time only
// moves when the test calls Advance or AdvanceTo. A goroutine blocked in
// After or Sleep on a fake clock registers a pending waiter; tests call
// WaitForTimers before advancing so the advance cannot race the
// registration:
//
//	c := clock.Fake(time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC))
//	go scheduler.RunPeriodically(ctx, trigger, task)
//	c.WaitForTimers(1)
//	c.AdvanceTo(time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC))
package clock
