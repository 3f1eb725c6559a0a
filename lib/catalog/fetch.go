// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/netutil"
	"github.com/bureau-foundation/shopbot/lib/version"
)

// DefaultURL is the fortnite-api.com item shop endpoint.
const DefaultURL = "https://fortnite-api.com/v2/shop"

// DefaultTimeout bounds one catalog request, including reading the body.
const DefaultTimeout = 30 * time.Second

// APIError is a failure reported by the catalog API, either as a non-2xx
// status or as an "error" field in the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// URL defaults to DefaultURL.
	URL string

	// Language is passed as the "language" query parameter when set
	// (e.g. "ru"), which localizes item names.
	Language string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Clock stamps Snapshot.FetchedAt. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Fetcher retrieves catalog snapshots over HTTP.
type Fetcher struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

// NewFetcher validates config and returns a Fetcher.
func NewFetcher(config FetcherConfig) (*Fetcher, error) {
	rawURL := config.URL
	if rawURL == "" {
		rawURL = DefaultURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("catalog URL %q must be http or https", rawURL)
	}
	if config.Language != "" {
		query := parsed.Query()
		query.Set("language", config.Language)
		parsed.RawQuery = query.Encode()
	}

	fetcher := &Fetcher{
		url:        parsed.String(),
		httpClient: config.HTTPClient,
		timeout:    config.Timeout,
		clock:      config.Clock,
		logger:     config.Logger,
	}
	if fetcher.httpClient == nil {
		fetcher.httpClient = http.DefaultClient
	}
	if fetcher.timeout <= 0 {
		fetcher.timeout = DefaultTimeout
	}
	if fetcher.clock == nil {
		fetcher.clock = clock.Real()
	}
	if fetcher.logger == nil {
		fetcher.logger = slog.New(slog.DiscardHandler)
	}
	return fetcher, nil
}

// URL returns the endpoint the fetcher requests, including the language
// parameter.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs one GET and parses the response.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating catalog request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, apiError(response)
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog response: %w", err)
	}

	snapshot, err := Parse(body, f.clock.Now())
	if err != nil {
		return nil, err
	}
	f.logger.Debug("catalog fetched",
		"size", humanize.Bytes(uint64(len(body))),
		"categories", len(snapshot.Categories),
		"entries", snapshot.EntryCount(),
	)
	return snapshot, nil
}

func apiError(response *http.Response) error {
	body := netutil.ErrorBody(response.Body)
	var payload struct {
		Error string `json:"error"`
	}
	message := body
	if json.Unmarshal([]byte(body), &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(response.StatusCode)
	}
	return &APIError{StatusCode: response.StatusCode, Message: message}
}
