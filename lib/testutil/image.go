// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// JPEG returns a width x height JPEG filled with fill.
func JPEG(t TB, width, height int, fill color.Color) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, Solid(width, height, fill), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test JPEG: %v", err)
	}
	return buffer.Bytes()
}

// PNG returns a width x height PNG filled with fill.
func PNG(t TB, width, height int, fill color.Color) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, Solid(width, height, fill)); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buffer.Bytes()
}

// Solid returns an RGBA image filled with fill.
func Solid(width, height int, fill color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, fill)
		}
	}
	return img
}
