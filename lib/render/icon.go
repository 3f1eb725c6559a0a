// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"time"

	// Icon formats served by the catalog CDN.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/bureau-foundation/shopbot/lib/netutil"
	"github.com/bureau-foundation/shopbot/lib/version"
)

// PlaceholderColor fills icons that could not be fetched.
var PlaceholderColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// Placeholder returns a fresh opaque IconSize x IconSize light grey
// image.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))
	for offset := 0; offset < len(img.Pix); offset += 4 {
		img.Pix[offset+0] = PlaceholderColor.R
		img.Pix[offset+1] = PlaceholderColor.G
		img.Pix[offset+2] = PlaceholderColor.B
		img.Pix[offset+3] = PlaceholderColor.A
	}
	return img
}

// IsPlaceholder reports whether img is a Placeholder() image.
func IsPlaceholder(img image.Image) bool {
	if img == nil || img.Bounds().Dx() != IconSize || img.Bounds().Dy() != IconSize {
		return false
	}
	if rgba, ok := img.(*image.RGBA); ok {
		for offset := 0; offset < len(rgba.Pix); offset += 4 {
			if rgba.Pix[offset] != PlaceholderColor.R || rgba.Pix[offset+1] != PlaceholderColor.G ||
				rgba.Pix[offset+2] != PlaceholderColor.B || rgba.Pix[offset+3] != PlaceholderColor.A {
				return false
			}
		}
		return true
	}
	bounds := img.Bounds()
	want := color.RGBAModel.Convert(PlaceholderColor)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) != want {
				return false
			}
		}
	}
	return true
}

// IconSource supplies entry icons. Icon never fails: any problem
// yields Placeholder().
type IconSource interface {
	Icon(ctx context.Context, url string) image.Image
}

// IconFetcherConfig configures an IconFetcher.
type IconFetcherConfig struct {
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Timeout bounds one icon request. Defaults to 15s.
	Timeout time.Duration

	// MaxBytes bounds one icon body. Defaults to 8 MiB.
	MaxBytes int64

	// MaxPixels bounds decoded icon dimensions (width*height).
	// Defaults to 4096*4096.
	MaxPixels int

	Logger *slog.Logger
}

// IconFetcher downloads icons over HTTP.
type IconFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	maxPixels  int
	logger     *slog.Logger
}

// NewIconFetcher returns an IconFetcher with defaults applied.
func NewIconFetcher(config IconFetcherConfig) *IconFetcher {
	fetcher := &IconFetcher{
		httpClient: config.HTTPClient,
		timeout:    config.Timeout,
		maxBytes:   config.MaxBytes,
		maxPixels:  config.MaxPixels,
		logger:     config.Logger,
	}
	if fetcher.httpClient == nil {
		fetcher.httpClient = http.DefaultClient
	}
	if fetcher.timeout <= 0 {
		fetcher.timeout = 15 * time.Second
	}
	if fetcher.maxBytes <= 0 {
		fetcher.maxBytes = 8 << 20
	}
	if fetcher.maxPixels <= 0 {
		fetcher.maxPixels = 4096 * 4096
	}
	if fetcher.logger == nil {
		fetcher.logger = slog.New(slog.DiscardHandler)
	}
	return fetcher
}

// Icon fetches and decodes url, or returns Placeholder().
func (f *IconFetcher) Icon(ctx context.Context, url string) image.Image {
	if url == "" {
		return Placeholder()
	}
	img, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Debug("icon unavailable, using placeholder", "url", url, "error", err)
		return Placeholder()
	}
	return img
}

func (f *IconFetcher) fetch(ctx context.Context, url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", response.StatusCode)
	}

	data, err := netutil.ReadLimited(response.Body, f.maxBytes)
	if err != nil {
		return nil, err
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}
	if config.Width <= 0 || config.Height <= 0 || config.Width*config.Height > f.maxPixels {
		return nil, fmt.Errorf("%s icon is %dx%d", format, config.Width, config.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return img, nil
}
