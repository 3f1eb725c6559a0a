// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog fetches the item shop from fortnite-api.com and turns
// it into a [Snapshot]: an ordered list of named categories, each an
// ordered list of entries (item name, icon URL, price in V-Bucks).
//
// The API groups entries into fixed buckets ("featured", "daily",
// "specialFeatured", "specialDaily"). A bucket that is absent, null or
// has no entries does not appear in the snapshot. Each entry contributes
// its first item's name and icon and the entry's final price:
//
//	{"data": {"daily": {"entries": [
//	    {"finalPrice": 500,
//	     "items": [{"name": "Axe", "images": {"icon": "https://..."}}]}
//	]}}}
//
// An entry without items, a name or a price is malformed and fails the
// whole fetch; a failed fetch never produces a partial snapshot.
//
// Snapshots are immutable once built. [Snapshot.Fingerprint] identifies
// the catalog content (not the fetch time), so the refresher can tell
// when the shop has not rotated.
package catalog
