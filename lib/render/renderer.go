// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/shopbot/lib/catalog"
)

// ContentType is the media type of rendered images.
const ContentType = "image/jpeg"

// DefaultQuality is the JPEG quality used when Config.Quality is zero.
const DefaultQuality = 90

// Image is an encoded render.
type Image struct {
	Data   []byte
	Width  int
	Height int

	// Placeholders counts icons with a URL that were drawn as
	// Placeholder() because they could not be fetched.
	Placeholders int
}

// Config configures a Renderer.
type Config struct {
	// Fonts defaults to LoadFonts("").
	Fonts *Fonts

	// Icons defaults to NewIconFetcher(IconFetcherConfig{Logger: Logger}).
	Icons IconSource

	// Quality is the JPEG quality, 1 to 100. Defaults to DefaultQuality.
	Quality int

	// Concurrency bounds parallel icon fetches. Defaults to 8.
	Concurrency int

	Logger *slog.Logger
}

// Renderer turns snapshots into JPEGs. Safe for concurrent use; renders
// are serialized because font faces carry per-face state.
type Renderer struct {
	fonts       *Fonts
	icons       IconSource
	quality     int
	concurrency int
	logger      *slog.Logger

	mu sync.Mutex
}

// New returns a Renderer. It fails only when the default font cannot be
// loaded or the quality is out of range.
func New(config Config) (*Renderer, error) {
	if config.Quality == 0 {
		config.Quality = DefaultQuality
	}
	if config.Quality < 1 || config.Quality > 100 {
		return nil, fmt.Errorf("render: JPEG quality %d outside 1-100", config.Quality)
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Fonts == nil {
		fonts, err := LoadFonts("")
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		config.Fonts = fonts
	}
	if config.Icons == nil {
		config.Icons = NewIconFetcher(IconFetcherConfig{Logger: config.Logger})
	}
	return &Renderer{
		fonts:       config.Fonts,
		icons:       config.Icons,
		quality:     config.Quality,
		concurrency: config.Concurrency,
		logger:      config.Logger,
	}, nil
}

// Measure validates snapshot and returns its layout without fetching
// icons or drawing.
func (r *Renderer) Measure(snapshot *catalog.Snapshot) (Layout, error) {
	if err := snapshot.Validate(); err != nil {
		return Layout{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return measure(r.fonts, snapshot), nil
}

// Render fetches icons for snapshot, draws it and encodes the result.
func (r *Renderer) Render(ctx context.Context, snapshot *catalog.Snapshot) (*Image, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	icons, placeholders, err := r.fetchIcons(ctx, snapshot.IconURLs())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	layout := measure(r.fonts, snapshot)
	canvas := r.draw(layout, icons)
	r.mu.Unlock()

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, canvas, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("render: encoding JPEG: %w", err)
	}

	r.logger.Debug("catalog rendered",
		"width", layout.Width,
		"height", layout.Height,
		"icons", len(icons),
		"placeholders", placeholders,
		"size", humanize.Bytes(uint64(encoded.Len())),
		"duration", time.Since(started),
	)
	return &Image{
		Data:         encoded.Bytes(),
		Width:        layout.Width,
		Height:       layout.Height,
		Placeholders: placeholders,
	}, nil
}

// fetchIcons resolves every URL concurrently. Individual icons cannot
// fail; only cancellation of ctx aborts the render. The count is the
// number of non-empty URLs that came back as placeholders.
func (r *Renderer) fetchIcons(ctx context.Context, urls []string) (map[string]image.Image, int, error) {
	results := make([]image.Image, len(urls))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for index, url := range urls {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[index] = r.icons.Icon(groupCtx, url)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, 0, fmt.Errorf("render: fetching icons: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("render: fetching icons: %w", err)
	}

	icons := make(map[string]image.Image, len(urls))
	placeholders := 0
	for index, url := range urls {
		icons[url] = results[index]
		if url != "" && IsPlaceholder(results[index]) {
			placeholders++
		}
	}
	return icons, placeholders, nil
}

func (r *Renderer) draw(layout Layout, icons map[string]image.Image) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	ink := image.NewUniform(color.Black)
	text := func(face font.Face, x, top int, value string) {
		drawer := font.Drawer{
			Dst:  canvas,
			Src:  ink,
			Face: face,
			Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
		}
		drawer.DrawString(value)
	}

	for _, category := range layout.Categories {
		text(r.fonts.Heading, Padding, category.HeadingY, category.Heading)
		for _, row := range category.Rows {
			icon, ok := icons[row.IconURL]
			if !ok {
				icon = Placeholder()
			}
			draw.BiLinear.Scale(canvas, row.Icon, icon, icon.Bounds(), draw.Over, nil)

			for index, line := range row.Lines {
				text(r.fonts.Item, TextColumnX, row.LineY[index], line)
			}
			text(r.fonts.Price, row.PriceX, row.PriceY, row.Price)
		}
	}
	return canvas
}
