// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot answers chat commands with the cached catalog image.
//
// [Handler] holds the transport-independent behavior: "show catalog"
// replies with the cached JPEG, or with [NotReadyMessage] before the
// first successful refresh. Transports implement [Reply] and feed
// incoming message bodies to [Handler.Handle]. Two transports exist:
// [MatrixAdapter] over a Matrix /sync loop and [TelegramAdapter] over
// Bot API long polling. Both remember where they uploaded the current
// image (mxc:// URI or Telegram file_id) keyed by image digest, so an
// unchanged image is uploaded once per transport.
package bot
