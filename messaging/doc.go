// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the subset of the Matrix client-server API the
// shop bot needs to serve the catalog in Matrix rooms.
//
// [Client] is an unauthenticated client holding the homeserver URL and
// HTTP transport. It logs in with a password or wraps an existing access
// token, returning a [DirectSession]. The session joins rooms, long-polls
// /sync for commands, uploads the catalog JPEG to the media repository
// and sends m.image and m.text events. The access token is held in a
// [secret.Buffer]; callers must Close the session.
//
// All API errors are returned as [*MatrixError] with the standard Matrix
// error code and HTTP status. [IsMatrixError] tests for a specific code.
// Request URLs are built by string concatenation with each path segment
// escaped individually, since room IDs contain '!' and ':'.
package messaging
