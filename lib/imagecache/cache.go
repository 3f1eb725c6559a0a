// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package imagecache holds the most recently rendered catalog image in
// a single slot. The refresher is the only writer; chat handlers and the
// status endpoint read it. Set replaces the whole entry with one atomic
// pointer swap, so a reader sees either the previous entry or the new
// one, never a mixture.
package imagecache

import (
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/digest"
	"github.com/bureau-foundation/shopbot/lib/render"
)

// Entry is one cached render. Entries are never modified after Set;
// readers may hold on to Data without copying.
type Entry struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int

	// Digest identifies Data. Transports key uploaded media on it.
	Digest digest.Hash

	// Fingerprint identifies the catalog content Data was rendered from.
	Fingerprint digest.Hash

	Categories int
	Entries    int
	FetchedAt  time.Time
	RenderedAt time.Time

	// Placeholders counts icons that could not be fetched and were
	// drawn grey.
	Placeholders int
}

// NewEntry builds an Entry for img rendered from snapshot.
func NewEntry(img *render.Image, snapshot *catalog.Snapshot, fingerprint digest.Hash, renderedAt time.Time) *Entry {
	return &Entry{
		Data:        img.Data,
		ContentType: render.ContentType,
		Width:       img.Width,
		Height:      img.Height,
		Digest:      digest.Sum(digest.ImageDomain, img.Data),
		Fingerprint: fingerprint,
		Categories:  len(snapshot.Categories),
		Entries:     snapshot.EntryCount(),
		FetchedAt:   snapshot.FetchedAt,
		RenderedAt:  renderedAt,

		Placeholders: img.Placeholders,
	}
}

// Cache is the single-slot image store. The zero value is empty and
// ready to use.
type Cache struct {
	current atomic.Pointer[Entry]
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{}
}

// Get returns the current entry, or nil before the first Set.
func (c *Cache) Get() *Entry {
	return c.current.Load()
}

// Set replaces the current entry. Setting nil is ignored: the cache
// never goes back to empty.
func (c *Cache) Set(entry *Entry) {
	if entry == nil {
		return
	}
	c.current.Store(entry)
}

// Touch records that a refresh at fetchedAt produced the same catalog as
// the current entry. It swaps in a copy with the new fetch time and the
// same image. Returns false if the cache is empty, the fingerprint no
// longer matches, or the current image has placeholder icons and is
// worth rendering again.
func (c *Cache) Touch(fingerprint digest.Hash, fetchedAt time.Time) bool {
	for {
		current := c.current.Load()
		if current == nil || current.Fingerprint != fingerprint || current.Placeholders > 0 {
			return false
		}
		updated := *current
		updated.FetchedAt = fetchedAt
		if c.current.CompareAndSwap(current, &updated) {
			return true
		}
	}
}
