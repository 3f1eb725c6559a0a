// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend] and [RequireClosed] wrap the select
// with a wall-clock fallback, so tests that wait on goroutines driven by
// a fake clock fail with a message instead of hanging. They are the only
// place tests touch real time.
//
// [JPEG] builds a small encoded image for cache and transport tests.
package testutil
