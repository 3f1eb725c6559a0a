// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is shopbot's canonical binary encoding.
//
// Catalog snapshots are fingerprinted by hashing their CBOR encoding, so
// the encoder must produce identical bytes for identical logical data.
// It uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items.
//
// Types shared with JSON interfaces carry `json` tags only; the CBOR
// library reads them as a fallback, so one tag governs both formats.
package codec
