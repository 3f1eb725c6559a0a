// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"io"

	"github.com/bureau-foundation/shopbot/lib/ref"
)

// Session is the set of Matrix operations the bot performs.
// *DirectSession is the production implementation; tests substitute
// fakes.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID.
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// JoinRoom joins a room by room ID. Returns the room ID.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// SendEvent sends an event of any type to a room. Returns the event ID.
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error)

	// SendMessage sends an m.room.message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content any) (ref.EventID, error)

	// UploadMedia uploads content to the media repository and returns
	// its mxc:// URI.
	UploadMedia(ctx context.Context, contentType, filename string, body io.Reader) (string, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
