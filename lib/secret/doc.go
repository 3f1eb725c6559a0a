// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps bot access tokens out of the Go heap.
//
// [Buffer] allocates its bytes with mmap(MAP_ANONYMOUS), locks them into
// RAM with mlock and excludes them from core dumps with
// madvise(MADV_DONTDUMP). Close zeroes, unlocks and unmaps the region;
// any access after Close panics.
//
// Tokens enter through [NewFromBytes] (which zeroes the caller's slice),
// [NewFromString] or [ReadFromPath], and leave only at HTTP boundaries
// through [Buffer.String].
package secret
