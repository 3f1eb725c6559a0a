// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/config"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/refresh"
	"github.com/bureau-foundation/shopbot/lib/render"
)

// pipeline is the fetch, render and cache chain shared by the bot and
// render modes.
type pipeline struct {
	fetcher   *catalog.Fetcher
	renderer  *render.Renderer
	fonts     *render.Fonts
	cache     *imagecache.Cache
	refresher *refresh.Refresher
}

func newPipeline(cfg *config.Config, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) (*pipeline, error) {
	fetcher, err := catalog.NewFetcher(catalog.FetcherConfig{
		URL:        cfg.Catalog.URL,
		Language:   cfg.Catalog.Language,
		HTTPClient: httpClient,
		Timeout:    cfg.Catalog.Timeout.Std(),
		Clock:      clk,
		Logger:     logger.With("component", "catalog"),
	})
	if err != nil {
		return nil, err
	}

	fonts, err := render.LoadFonts(cfg.Render.FontPath)
	if err != nil {
		return nil, fmt.Errorf("loading fonts: %w", err)
	}
	renderer, err := render.New(render.Config{
		Fonts: fonts,
		Icons: render.NewIconFetcher(render.IconFetcherConfig{
			HTTPClient: httpClient,
			Timeout:    cfg.Render.IconTimeout.Std(),
			Logger:     logger.With("component", "icons"),
		}),
		Quality:     cfg.Render.Quality,
		Concurrency: cfg.Render.IconConcurrency,
		Logger:      logger.With("component", "render"),
	})
	if err != nil {
		fonts.Close()
		return nil, err
	}

	cache := imagecache.New()
	refresher := refresh.New(refresh.Config{
		Fetcher:  fetcher,
		Renderer: renderer,
		Cache:    cache,
		Timeout:  cfg.Refresh.Timeout.Std(),
		Clock:    clk,
		Logger:   logger.With("component", "refresh"),
	})

	return &pipeline{
		fetcher:   fetcher,
		renderer:  renderer,
		fonts:     fonts,
		cache:     cache,
		refresher: refresher,
	}, nil
}

func (p *pipeline) Close() error {
	return p.fonts.Close()
}
