// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the process-level surfaces the shop bot runs
// alongside its refresh loop:
//
//   - Status handler: /healthz, /status and /catalog.jpg over the image
//     cache and refresh history, gzip-compressed where it helps.
//   - Status server: the handler on a TCP listener, drained when its
//     context ends.
//   - Sync loop: incremental Matrix /sync long-poll with backoff,
//     delivering responses to a caller-provided handler, plus invite
//     acceptance.
//
// The bot composes these in its own main() rather than subclassing a
// framework. The package provides building blocks, not a runtime.
package service
