// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/shopbot/lib/codec"
	"github.com/bureau-foundation/shopbot/lib/digest"
)

// Entry is one purchasable listing.
type Entry struct {
	ItemName string `json:"item_name"`

	// IconURL may be empty or unreachable; the renderer substitutes a
	// placeholder.
	IconURL string `json:"icon_url,omitempty"`

	// Price is the final price in V-Bucks.
	Price int `json:"price"`
}

// Category is a named, non-empty group of entries in source order.
type Category struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Snapshot is one fetched catalog.
type Snapshot struct {
	Categories []Category `json:"categories"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Bucket is a category key in the API response.
type Bucket string

const (
	BucketFeatured        Bucket = "featured"
	BucketDaily           Bucket = "daily"
	BucketSpecialFeatured Bucket = "specialFeatured"
	BucketSpecialDaily    Bucket = "specialDaily"
)

// Buckets lists the buckets in the order they are rendered.
var Buckets = []Bucket{BucketFeatured, BucketDaily, BucketSpecialFeatured, BucketSpecialDaily}

// DisplayName splits the camel-case key into capitalized words:
// "specialFeatured" becomes "Special Featured".
func (b Bucket) DisplayName() string {
	var builder strings.Builder
	for index, r := range string(b) {
		switch {
		case index == 0:
			builder.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			builder.WriteByte(' ')
			builder.WriteRune(r)
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// ValidationError describes a structurally malformed snapshot.
type ValidationError struct {
	Category int // -1 when the problem is with the snapshot as a whole
	Entry    int // -1 when the problem is with the category itself
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Category < 0 {
		return fmt.Sprintf("catalog: %s %s", e.Field, e.Reason)
	}
	if e.Entry < 0 {
		return fmt.Sprintf("catalog: category %d: %s %s", e.Category, e.Field, e.Reason)
	}
	return fmt.Sprintf("catalog: category %d entry %d: %s %s", e.Category, e.Entry, e.Field, e.Reason)
}

// Validate reports the first structural problem in s, or nil. A nil or
// empty snapshot is malformed: there is nothing to render.
func (s *Snapshot) Validate() error {
	if s == nil || len(s.Categories) == 0 {
		return &ValidationError{Category: -1, Entry: -1, Field: "categories", Reason: "is empty"}
	}
	for categoryIndex, category := range s.Categories {
		if strings.TrimSpace(category.Name) == "" {
			return &ValidationError{Category: categoryIndex, Entry: -1, Field: "name", Reason: "is empty"}
		}
		if len(category.Entries) == 0 {
			return &ValidationError{Category: categoryIndex, Entry: -1, Field: "entries", Reason: "is empty"}
		}
		for entryIndex, entry := range category.Entries {
			if strings.TrimSpace(entry.ItemName) == "" {
				return &ValidationError{Category: categoryIndex, Entry: entryIndex, Field: "item_name", Reason: "is empty"}
			}
			if entry.Price < 0 {
				return &ValidationError{Category: categoryIndex, Entry: entryIndex, Field: "price", Reason: fmt.Sprintf("is negative (%d)", entry.Price)}
			}
		}
	}
	return nil
}

// EntryCount returns the number of entries across all categories.
func (s *Snapshot) EntryCount() int {
	count := 0
	for _, category := range s.Categories {
		count += len(category.Entries)
	}
	return count
}

// IconURLs returns the distinct non-empty icon URLs in render order.
func (s *Snapshot) IconURLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, category := range s.Categories {
		for _, entry := range category.Entries {
			if entry.IconURL == "" || seen[entry.IconURL] {
				continue
			}
			seen[entry.IconURL] = true
			urls = append(urls, entry.IconURL)
		}
	}
	return urls
}

// Fingerprint hashes the categories, ignoring FetchedAt.
func (s *Snapshot) Fingerprint() (digest.Hash, error) {
	encoded, err := codec.Marshal(s.Categories)
	if err != nil {
		return digest.Hash{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	return digest.Sum(digest.SnapshotDomain, encoded), nil
}
