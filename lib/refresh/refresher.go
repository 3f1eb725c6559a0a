// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/render"
)

// DefaultTimeout bounds one refresh, fetch and render together.
const DefaultTimeout = 2 * time.Minute

// ErrInProgress is returned by Refresh when another refresh is running.
var ErrInProgress = errors.New("refresh already in progress")

// Fetcher produces catalog snapshots. *catalog.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*catalog.Snapshot, error)
}

// Renderer encodes snapshots. *render.Renderer implements it.
type Renderer interface {
	Render(ctx context.Context, snapshot *catalog.Snapshot) (*render.Image, error)
}

// Config configures a Refresher. Fetcher, Renderer and Cache are
// required.
type Config struct {
	Fetcher  Fetcher
	Renderer Renderer
	Cache    *imagecache.Cache

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Clock defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Status describes the refresh history, for the status endpoint.
type Status struct {
	Running     bool      `json:"running"`
	LastRunID   string    `json:"last_run_id,omitempty"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Runs        int       `json:"runs"`
	Failures    int       `json:"failures"`
	Unchanged   int       `json:"unchanged"`
	Skipped     int       `json:"skipped"`
}

// Refresher runs fetch, render and cache swap.
type Refresher struct {
	fetcher  Fetcher
	renderer Renderer
	cache    *imagecache.Cache
	timeout  time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	running atomic.Bool

	statusMu sync.Mutex
	status   Status
}

// New returns a Refresher. Panics if a required field is missing.
func New(config Config) *Refresher {
	if config.Fetcher == nil {
		panic("refresh.New: Fetcher is required")
	}
	if config.Renderer == nil {
		panic("refresh.New: Renderer is required")
	}
	if config.Cache == nil {
		panic("refresh.New: Cache is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Refresher{
		fetcher:  config.Fetcher,
		renderer: config.Renderer,
		cache:    config.Cache,
		timeout:  config.Timeout,
		clock:    config.Clock,
		logger:   config.Logger,
	}
}

// Refresh performs one refresh. It returns ErrInProgress if another
// refresh is running, and otherwise the fetch or render error, if any.
// The cache is only written on success.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Info("catalog refresh already running, skipping")
		r.updateStatus(func(status *Status) { status.Skipped++ })
		return ErrInProgress
	}
	defer r.running.Store(false)

	runID := uuid.NewString()
	started := r.clock.Now()
	logger := r.logger.With("refresh_id", runID)
	r.updateStatus(func(status *Status) {
		status.Running = true
		status.LastRunID = runID
		status.LastAttempt = started
	})

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	unchanged, err := r.run(ctx, logger)

	finished := r.clock.Now()
	r.updateStatus(func(status *Status) {
		status.Running = false
		status.Runs++
		if err != nil {
			status.Failures++
			status.LastError = err.Error()
			return
		}
		status.LastError = ""
		status.LastSuccess = finished
		if unchanged {
			status.Unchanged++
		}
	})

	if err != nil {
		logger.Error("catalog refresh failed, keeping previous image",
			"error", err,
			"has_image", r.cache.Get() != nil,
		)
		return err
	}
	return nil
}

func (r *Refresher) run(ctx context.Context, logger *slog.Logger) (unchanged bool, err error) {
	started := r.clock.Now()

	snapshot, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("fetching catalog: %w", err)
	}
	fingerprint, err := snapshot.Fingerprint()
	if err != nil {
		return false, fmt.Errorf("fingerprinting catalog: %w", err)
	}
	if r.cache.Touch(fingerprint, snapshot.FetchedAt) {
		logger.Info("catalog unchanged, keeping current image",
			"fingerprint", fingerprint.Short(),
		)
		return true, nil
	}

	img, err := r.renderer.Render(ctx, snapshot)
	if err != nil {
		return false, fmt.Errorf("rendering catalog: %w", err)
	}

	entry := imagecache.NewEntry(img, snapshot, fingerprint, r.clock.Now())
	r.cache.Set(entry)
	logger.Info("catalog refreshed",
		"categories", entry.Categories,
		"entries", entry.Entries,
		"width", entry.Width,
		"height", entry.Height,
		"size", humanize.Bytes(uint64(len(entry.Data))),
		"digest", entry.Digest.Short(),
		"placeholders", entry.Placeholders,
		"duration", r.clock.Now().Sub(started),
	)
	return false, nil
}

// Status returns a copy of the refresh history.
func (r *Refresher) Status() Status {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status
}

func (r *Refresher) updateStatus(update func(*Status)) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	update(&r.status)
}
