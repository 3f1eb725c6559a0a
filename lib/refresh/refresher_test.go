// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package refresh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/render"
	"github.com/bureau-foundation/shopbot/lib/testutil"
)

var startTime = time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)

// stubFetcher returns queued results in order, repeating the last.
type stubFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int

	// started, when set, receives once per call before blocking on
	// release.
	started chan struct{}
	release chan struct{}
}

type fetchResult struct {
	snapshot *catalog.Snapshot
	err      error
}

func (f *stubFetcher) Fetch(ctx context.Context) (*catalog.Snapshot, error) {
	f.mu.Lock()
	index := min(f.calls, len(f.results)-1)
	f.calls++
	result := f.results[index]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return result.snapshot, result.err
}

type stubRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubRenderer) Render(ctx context.Context, snapshot *catalog.Snapshot) (*render.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &render.Image{
		Data:   []byte(fmt.Sprintf("jpeg #%d of %s", r.calls, snapshot.Categories[0].Entries[0].ItemName)),
		Width:  render.Width,
		Height: 200,
	}, nil
}

func (r *stubRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func snapshotOf(itemName string, price int) *catalog.Snapshot {
	return &catalog.Snapshot{
		Categories: []catalog.Category{{Name: "Daily", Entries: []catalog.Entry{{ItemName: itemName, Price: price}}}},
		FetchedAt:  startTime,
	}
}

func newTestRefresher(fetcher Fetcher, renderer Renderer, cache *imagecache.Cache) *Refresher {
	return New(Config{
		Fetcher:  fetcher,
		Renderer: renderer,
		Cache:    cache,
		Clock:    clock.Fake(startTime),
	})
}

func TestRefreshPopulatesCache(t *testing.T) {
	cache := imagecache.New()
	refresher := newTestRefresher(
		&stubFetcher{results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}}},
		&stubRenderer{},
		cache,
	)

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	entry := cache.Get()
	if entry == nil {
		t.Fatal("cache is empty after a successful refresh")
	}
	if string(entry.Data) != "jpeg #1 of Axe" || entry.Entries != 1 {
		t.Errorf("cached entry = %+v", entry)
	}

	status := refresher.Status()
	if status.Runs != 1 || status.Failures != 0 || status.LastError != "" || status.LastRunID == "" {
		t.Errorf("status = %+v", status)
	}
	if !status.LastSuccess.Equal(startTime) || status.Running {
		t.Errorf("status = %+v", status)
	}
}

func TestFailedRefreshKeepsPreviousImage(t *testing.T) {
	networkError := errors.New("dial tcp: connection refused")
	tests := []struct {
		name     string
		second   fetchResult
		renderer *stubRenderer
		wantErr  error
	}{
		{"fetch error", fetchResult{err: networkError}, &stubRenderer{}, networkError},
		{"render error", fetchResult{snapshot: snapshotOf("Pickaxe", 800)}, &stubRenderer{}, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cache := imagecache.New()
			fetcher := &stubFetcher{results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}, test.second}}
			refresher := newTestRefresher(fetcher, test.renderer, cache)

			if err := refresher.Refresh(context.Background()); err != nil {
				t.Fatal(err)
			}
			before := cache.Get()
			beforeData := bytes.Clone(before.Data)

			if test.wantErr == nil {
				test.renderer.err = errors.New("encoding JPEG: out of memory")
			}
			err := refresher.Refresh(context.Background())
			if err == nil {
				t.Fatal("second Refresh succeeded, want error")
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("Refresh error = %v, want %v", err, test.wantErr)
			}

			after := cache.Get()
			if after != before || !bytes.Equal(after.Data, beforeData) {
				t.Fatal("failed refresh changed the cached image")
			}
			status := refresher.Status()
			if status.Runs != 2 || status.Failures != 1 || status.LastError == "" {
				t.Errorf("status = %+v", status)
			}
		})
	}
}

func TestFailedFirstRefreshLeavesCacheEmpty(t *testing.T) {
	cache := imagecache.New()
	refresher := newTestRefresher(
		&stubFetcher{results: []fetchResult{{err: &catalog.APIError{StatusCode: 503, Message: "maintenance"}}}},
		&stubRenderer{},
		cache,
	)
	var apiError *catalog.APIError
	if err := refresher.Refresh(context.Background()); !errors.As(err, &apiError) {
		t.Fatalf("Refresh error = %v, want *catalog.APIError", err)
	}
	if cache.Get() != nil {
		t.Fatal("failed refresh populated the cache")
	}
}

func TestUnchangedCatalogSkipsRender(t *testing.T) {
	cache := imagecache.New()
	renderer := &stubRenderer{}
	later := snapshotOf("Axe", 500)
	later.FetchedAt = startTime.Add(24 * time.Hour)
	refresher := newTestRefresher(
		&stubFetcher{results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}, {snapshot: later}, {snapshot: snapshotOf("Glider", 1200)}}},
		renderer,
		cache,
	)

	for range 2 {
		if err := refresher.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if renderer.callCount() != 1 {
		t.Fatalf("renderer called %d times, want 1 for an unchanged catalog", renderer.callCount())
	}
	if !cache.Get().FetchedAt.Equal(later.FetchedAt) {
		t.Errorf("FetchedAt = %v, want the later fetch time", cache.Get().FetchedAt)
	}
	if refresher.Status().Unchanged != 1 {
		t.Errorf("status = %+v", refresher.Status())
	}

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if renderer.callCount() != 2 || string(cache.Get().Data) != "jpeg #2 of Glider" {
		t.Errorf("changed catalog was not rendered: %q", cache.Get().Data)
	}
}

// recoveringIcons serves placeholders until recovered is set.
type recoveringIcons struct {
	recovered atomic.Bool
}

func (s *recoveringIcons) Icon(ctx context.Context, url string) image.Image {
	if !s.recovered.Load() {
		return render.Placeholder()
	}
	return testutil.Solid(render.IconSize, render.IconSize, color.RGBA{R: 220, A: 255})
}

func TestUnchangedCatalogRerendersAfterIconsRecover(t *testing.T) {
	icons := &recoveringIcons{}
	fonts, err := render.LoadFonts("")
	if err != nil {
		t.Fatalf("LoadFonts: %v", err)
	}
	t.Cleanup(func() { fonts.Close() })
	renderer, err := render.New(render.Config{Fonts: fonts, Icons: icons})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	snapshot := snapshotOf("Axe", 500)
	snapshot.Categories[0].Entries[0].IconURL = "https://cdn.example.com/axe.png"
	cache := imagecache.New()
	refresher := newTestRefresher(&stubFetcher{results: []fetchResult{{snapshot: snapshot}}}, renderer, cache)

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := cache.Get()
	if first.Placeholders != 1 {
		t.Fatalf("Placeholders = %d after a failed icon fetch, want 1", first.Placeholders)
	}

	icons.recovered.Store(true)
	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := cache.Get()
	if second.Digest == first.Digest {
		t.Fatal("image with placeholder icons was kept after the icons recovered")
	}
	if second.Placeholders != 0 {
		t.Errorf("Placeholders = %d after recovery, want 0", second.Placeholders)
	}
	if status := refresher.Status(); status.Unchanged != 0 {
		t.Errorf("status = %+v, want no unchanged refreshes", status)
	}

	// With every icon drawn, an identical catalog takes the shortcut again.
	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if cache.Get().Digest != second.Digest || refresher.Status().Unchanged != 1 {
		t.Errorf("complete image was re-rendered for an unchanged catalog: status = %+v", refresher.Status())
	}
}

func TestOverlappingRefreshIsSkipped(t *testing.T) {
	cache := imagecache.New()
	fetcher := &stubFetcher{
		results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	refresher := newTestRefresher(fetcher, &stubRenderer{}, cache)

	firstDone := make(chan error, 1)
	go func() { firstDone <- refresher.Refresh(context.Background()) }()
	testutil.RequireReceive(t, fetcher.started, 5*time.Second, "first refresh fetching")

	if err := refresher.Refresh(context.Background()); !errors.Is(err, ErrInProgress) {
		t.Fatalf("overlapping Refresh = %v, want ErrInProgress", err)
	}
	if !refresher.Status().Running {
		t.Error("status does not report the running refresh")
	}

	close(fetcher.release)
	if err := testutil.RequireReceive(t, firstDone, 5*time.Second, "first refresh finishing"); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if refresher.Status().Skipped != 1 || cache.Get() == nil {
		t.Errorf("status = %+v", refresher.Status())
	}

	// The guard is released once the first refresh returns.
	fetcher.started = nil
	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh after the overlap: %v", err)
	}
}

func TestRefreshTimeout(t *testing.T) {
	cache := imagecache.New()
	fetcher := &stubFetcher{
		results: []fetchResult{{snapshot: snapshotOf("Axe", 500)}},
		release: make(chan struct{}),
	}
	refresher := New(Config{
		Fetcher:  fetcher,
		Renderer: &stubRenderer{},
		Cache:    cache,
		Timeout:  20 * time.Millisecond,
	})

	err := refresher.Refresh(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Refresh error = %v, want deadline exceeded", err)
	}
	if cache.Get() != nil {
		t.Fatal("timed-out refresh populated the cache")
	}
}

func TestNewPanicsOnMissingDependencies(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New without a Cache did not panic")
		}
	}()
	New(Config{Fetcher: &stubFetcher{}, Renderer: &stubRenderer{}})
}
