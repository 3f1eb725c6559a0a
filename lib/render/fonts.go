// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Point sizes at 72 DPI, so one point is one pixel.
const (
	HeadingSize = 36
	ItemSize    = 20
	PriceSize   = 18

	dpi = 72
)

// Fonts holds the three faces the renderer draws with. Faces are not
// safe for concurrent use; the Renderer serializes access.
type Fonts struct {
	Heading font.Face
	Item    font.Face
	Price   font.Face
}

// LoadFonts parses the TrueType or OpenType file at path, or the
// embedded Go Bold face when path is empty.
func LoadFonts(path string) (*Fonts, error) {
	data := gobold.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading font: %w", err)
		}
	}
	return ParseFonts(data)
}

// ParseFonts builds the three faces from font file contents.
func ParseFonts(data []byte) (*Fonts, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	newFace := func(size float64) (font.Face, error) {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %gpt face: %w", size, err)
		}
		return face, nil
	}

	fonts := &Fonts{}
	if fonts.Heading, err = newFace(HeadingSize); err != nil {
		return nil, err
	}
	if fonts.Item, err = newFace(ItemSize); err != nil {
		return nil, err
	}
	if fonts.Price, err = newFace(PriceSize); err != nil {
		return nil, err
	}
	return fonts, nil
}

// Close releases the faces.
func (f *Fonts) Close() error {
	return errors.Join(f.Heading.Close(), f.Item.Close(), f.Price.Close())
}

// lineHeight is the ascent plus descent of face, in whole pixels.
func lineHeight(face font.Face) int {
	metrics := face.Metrics()
	return (metrics.Ascent + metrics.Descent).Ceil()
}

// textWidth is the advance width of text in face, in whole pixels.
func textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}
