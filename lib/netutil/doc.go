// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads.
//
// Every body shopbot reads comes from a server it does not control: the
// catalog API, icon CDNs, the Matrix homeserver and the Telegram Bot
// API. ReadResponse and DecodeResponse cap JSON bodies at
// MaxResponseSize; ReadLimited applies a caller-chosen cap and reports
// overflow as ErrTooLarge instead of silently truncating, which matters
// for images where a truncated body would decode as garbage.
package netutil
