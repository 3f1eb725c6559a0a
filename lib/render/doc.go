// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render draws a catalog snapshot as one tall JPEG.
//
// The canvas is 1000 pixels wide on a white background. For each
// category a 36pt heading is drawn, then one row per entry: the icon
// scaled to 64x64 at the left margin, the item name word-wrapped in 20pt
// to the right of the icon, and an 18pt "<price> V-Bucks" label
// right-aligned against the right margin and centered on the icon. The
// item name may use the width left after both margins, the icon, the
// gap after the icon and a 100 pixel column reserved for the price.
//
// Row height is computed after wrapping: a row is as tall as the larger
// of the icon and its wrapped name, so long names push the next row down
// instead of overlapping it. Names that fit on one or two lines give the
// same 64 pixel rows as a fixed-height layout.
//
// Icons come from an [IconSource], which never fails: [IconFetcher]
// downloads and decodes PNG, JPEG, GIF and WebP icons and substitutes
// [Placeholder] on any error. Rendering itself fails only for a
// malformed snapshot or a cancelled context. Output is deterministic:
// the same snapshot and icon bytes always encode to the same JPEG bytes.
package render
