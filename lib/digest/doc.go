// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes domain-separated BLAKE3 hashes.
//
// Two things in shopbot are identified by content: a catalog snapshot
// (so an unchanged shop is not rendered twice) and a rendered JPEG (the
// HTTP ETag, and the key under which chat transports remember an
// already-uploaded image). Each uses its own keyed-hash domain, so equal
// input bytes never collide across the two.
package digest
