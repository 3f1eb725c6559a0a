// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package telegram is a minimal Telegram Bot API client: long-polled
// updates, text messages and photo uploads.
//
// The bot token is part of every request URL, so the client holds it in
// a [secret.Buffer] and strips URLs from transport errors before
// returning them. API failures ("ok": false) are returned as
// [*APIError], which carries the retry_after hint on flood control.
package telegram
