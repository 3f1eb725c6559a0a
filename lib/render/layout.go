// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"image"

	"github.com/bureau-foundation/shopbot/lib/catalog"
)

// Geometry in pixels.
const (
	Width           = 1000
	Padding         = 20
	CategoryGap     = 40
	HeadingGap      = 10
	ItemSpacing     = 10
	IconSize        = 64
	PriceColumn     = 100
	TextOffset      = 10
	LineGap         = 2
	TrailingGap     = CategoryGap - ItemSpacing
	TextColumnX     = Padding + IconSize + TextOffset
	TextColumnWidth = Width - 2*Padding - IconSize - PriceColumn
)

// Layout is the measured position of everything on the canvas. Y values
// are the top of the drawn element.
type Layout struct {
	Width      int
	Height     int
	Categories []CategoryLayout
}

// CategoryLayout positions one category heading and its rows.
type CategoryLayout struct {
	Heading  string
	HeadingY int
	Rows     []RowLayout
}

// RowLayout positions one entry.
type RowLayout struct {
	Icon      image.Rectangle
	IconURL   string
	Lines     []string
	LineY     []int
	Price     string
	PriceX    int
	PriceY    int
	RowHeight int
}

// PriceLabel formats a price as drawn on the canvas.
func PriceLabel(price int) string {
	return fmt.Sprintf("%d V-Bucks", price)
}

// measure lays out snapshot. The caller must hold the faces.
func measure(fonts *Fonts, snapshot *catalog.Snapshot) Layout {
	headingHeight := lineHeight(fonts.Heading)
	itemHeight := lineHeight(fonts.Item)
	priceHeight := lineHeight(fonts.Price)

	layout := Layout{Width: Width}
	y := Padding
	for _, category := range snapshot.Categories {
		categoryLayout := CategoryLayout{Heading: category.Name, HeadingY: y}
		y += headingHeight + HeadingGap

		for _, entry := range category.Entries {
			row := RowLayout{
				Icon:    image.Rect(Padding, y, Padding+IconSize, y+IconSize),
				IconURL: entry.IconURL,
				Lines:   Wrap(entry.ItemName, fonts.Item, TextColumnWidth),
				Price:   PriceLabel(entry.Price),
			}

			textHeight := 0
			for index := range row.Lines {
				row.LineY = append(row.LineY, y+index*(itemHeight+LineGap))
				textHeight = (index+1)*itemHeight + index*LineGap
			}
			row.RowHeight = max(IconSize, textHeight)

			row.PriceX = Width - Padding - textWidth(fonts.Price, row.Price)
			row.PriceY = y + (IconSize-priceHeight)/2

			categoryLayout.Rows = append(categoryLayout.Rows, row)
			y += row.RowHeight + ItemSpacing
		}

		layout.Categories = append(layout.Categories, categoryLayout)
		y += TrailingGap
	}
	layout.Height = y
	return layout
}
