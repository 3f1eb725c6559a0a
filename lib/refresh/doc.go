// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package refresh keeps the image cache current.
//
// A [Refresher] performs one refresh: fetch the catalog, render it, swap
// the cache slot. Only one refresh runs at a time; an overlapping call
// returns [ErrInProgress] without doing anything. Fetch and render share
// one timeout. When either fails the error is logged and returned and
// the cache keeps its previous image: a failed refresh never clears a
// good image. When the fetched catalog has the same fingerprint as the
// cached one, the render is skipped.
//
// A [Scheduler] decides when refreshes happen. The process runs one
// refresh with RunOnce before it starts serving, then hands the
// refresher to RunPeriodically with a daily cron [Trigger]. The
// scheduler waits on an injected clock, so tests drive it with a fake
// clock instead of sleeping.
package refresh
