// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the shopbot binary.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected with
// -ldflags -X and default to "unknown" / "0.1.0-dev" in development
// builds and tests:
//
//	go build -ldflags "-X github.com/bureau-foundation/shopbot/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/shopbot
//
// [Info] is printed by --version and reported by the status endpoint;
// [UserAgent] identifies shopbot to the catalog API and icon CDNs.
package version
