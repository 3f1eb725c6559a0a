// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for the Matrix identifiers
// the bot handles: user IDs, room IDs, event IDs and event types.
//
// Identifiers arrive from configuration and from /sync responses and are
// parsed into these types at the boundary. Once constructed a ref is
// immutable. JSON uses the canonical string form via
// encoding.TextMarshaler, so refs work as map keys in sync payloads.
package ref
