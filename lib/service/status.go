// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/refresh"
	"github.com/bureau-foundation/shopbot/lib/version"
)

// RefreshStatus reports refresh history. *refresh.Refresher implements
// it.
type RefreshStatus interface {
	Status() refresh.Status
}

// StatusConfig configures NewStatusHandler.
type StatusConfig struct {
	// Cache is the image cache to report on and serve. Required.
	Cache *imagecache.Cache

	// Refresh is optional; without it /status omits the refresh
	// section.
	Refresh RefreshStatus

	// Clock defaults to clock.Real(); it drives the uptime field.
	Clock clock.Clock

	Logger *slog.Logger
}

// StatusResponse is the /status body.
type StatusResponse struct {
	Version string          `json:"version"`
	Ready   bool            `json:"ready"`
	Uptime  string          `json:"uptime"`
	Image   *ImageStatus    `json:"image,omitempty"`
	Refresh *refresh.Status `json:"refresh,omitempty"`
}

// ImageStatus describes the cached image.
type ImageStatus struct {
	Size         int       `json:"size"`
	SizeHuman    string    `json:"size_human"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Digest       string    `json:"digest"`
	Fingerprint  string    `json:"fingerprint"`
	Categories   int       `json:"categories"`
	Entries      int       `json:"entries"`
	Placeholders int       `json:"placeholders"`
	FetchedAt    time.Time `json:"fetched_at"`
	RenderedAt   time.Time `json:"rendered_at"`
}

// NewStatusHandler returns the status endpoint handler:
//
//	GET /healthz      200 once an image is cached, 503 before
//	GET /status       StatusResponse as JSON
//	GET /catalog.jpg  the cached JPEG, ETag'd by digest; 503 before the first refresh
//
// Responses are gzip-compressed when the client accepts it and the
// content type is not already compressed. Panics if Cache is nil.
func NewStatusHandler(config StatusConfig) http.Handler {
	if config.Cache == nil {
		panic("service.NewStatusHandler: Cache is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	handler := &statusHandler{
		cache:   config.Cache,
		refresh: config.Refresh,
		clock:   config.Clock,
		logger:  config.Logger,
		started: config.Clock.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.healthz)
	mux.HandleFunc("GET /status", handler.status)
	mux.HandleFunc("GET /catalog.jpg", handler.catalogImage)
	return gzhttp.GzipHandler(mux)
}

type statusHandler struct {
	cache   *imagecache.Cache
	refresh RefreshStatus
	clock   clock.Clock
	logger  *slog.Logger
	started time.Time
}

func (h *statusHandler) healthz(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.cache.Get() == nil {
		writer.WriteHeader(http.StatusServiceUnavailable)
		writer.Write([]byte("catalog not loaded\n"))
		return
	}
	writer.Write([]byte("ok\n"))
}

func (h *statusHandler) status(writer http.ResponseWriter, request *http.Request) {
	response := StatusResponse{
		Version: version.Info(),
		Uptime:  h.clock.Now().Sub(h.started).Round(time.Second).String(),
	}
	if entry := h.cache.Get(); entry != nil {
		response.Ready = true
		response.Image = &ImageStatus{
			Size:         len(entry.Data),
			SizeHuman:    humanize.Bytes(uint64(len(entry.Data))),
			Width:        entry.Width,
			Height:       entry.Height,
			Digest:       entry.Digest.String(),
			Fingerprint:  entry.Fingerprint.String(),
			Categories:   entry.Categories,
			Entries:      entry.Entries,
			Placeholders: entry.Placeholders,
			FetchedAt:    entry.FetchedAt,
			RenderedAt:   entry.RenderedAt,
		}
	}
	if h.refresh != nil {
		status := h.refresh.Status()
		response.Refresh = &status
	}

	writer.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		h.logger.Warn("writing status response", "error", err)
	}
}

func (h *statusHandler) catalogImage(writer http.ResponseWriter, request *http.Request) {
	entry := h.cache.Get()
	if entry == nil {
		writer.Header().Set("Retry-After", "60")
		http.Error(writer, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	writer.Header().Set("Content-Type", entry.ContentType)
	writer.Header().Set("ETag", `"`+entry.Digest.String()+`"`)
	writer.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(writer, request, "catalog.jpg", entry.RenderedAt, bytes.NewReader(entry.Data))
}
