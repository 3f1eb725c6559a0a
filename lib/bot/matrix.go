// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/ref"
	"github.com/bureau-foundation/shopbot/lib/service"
	"github.com/bureau-foundation/shopbot/messaging"
)

// matrixSyncFilter limits /sync to room messages and invites.
const matrixSyncFilter = `{"room":{"timeline":{"types":["m.room.message"],"limit":50},` +
	`"state":{"types":[]},"ephemeral":{"types":[]},"account_data":{"types":[]}},` +
	`"presence":{"types":[]},"account_data":{"types":[]}}`

// MatrixConfig configures a MatrixAdapter.
type MatrixConfig struct {
	// Session is the bot's authenticated Matrix session. Required.
	Session messaging.Session

	// Handler answers commands. Required.
	Handler *Handler

	// CommandPrefix is accepted besides "/". Defaults to DefaultPrefix.
	CommandPrefix string

	// Rooms are joined at startup. When non-empty, invites to other
	// rooms are ignored and commands are only answered in these rooms.
	Rooms []ref.RoomID

	// SyncTimeout is the /sync long-poll timeout. Default 30s.
	SyncTimeout time.Duration

	// MaxBackoff bounds retry waits after /sync errors. Default 30s.
	MaxBackoff time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// MatrixAdapter serves commands in Matrix rooms.
type MatrixAdapter struct {
	session     messaging.Session
	handler     *Handler
	prefix      string
	rooms       []ref.RoomID
	allowed     map[ref.RoomID]bool
	syncTimeout time.Duration
	maxBackoff  time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	botName     string
	uploads     uploadMemo
}

// NewMatrixAdapter validates config and returns an adapter.
func NewMatrixAdapter(config MatrixConfig) (*MatrixAdapter, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("bot: Matrix session is required")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("bot: Handler is required")
	}
	if config.SyncTimeout <= 0 {
		config.SyncTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	var allowed map[ref.RoomID]bool
	if len(config.Rooms) > 0 {
		allowed = make(map[ref.RoomID]bool, len(config.Rooms))
		for _, roomID := range config.Rooms {
			allowed[roomID] = true
		}
	}
	userID := config.Session.UserID()
	botName := ""
	if !userID.IsZero() {
		botName = userID.Localpart()
	}
	return &MatrixAdapter{
		session:     config.Session,
		handler:     config.Handler,
		prefix:      config.CommandPrefix,
		rooms:       config.Rooms,
		allowed:     allowed,
		syncTimeout: config.SyncTimeout,
		maxBackoff:  config.MaxBackoff,
		clock:       config.Clock,
		logger:      config.Logger.With("transport", "matrix", "user_id", userID),
		botName:     botName,
	}, nil
}

// Run joins the configured rooms, performs the initial sync and then
// serves commands until ctx is cancelled. Messages already in the
// initial sync's timeline are history and are not answered. Returns
// nil on cancellation.
func (a *MatrixAdapter) Run(ctx context.Context) error {
	for _, roomID := range a.rooms {
		if _, err := a.session.JoinRoom(ctx, roomID); err != nil {
			a.logger.Error("failed to join configured room", "room_id", roomID, "error", err)
		}
	}

	sinceToken, response, err := service.InitialSync(ctx, a.session, matrixSyncFilter)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	service.AcceptInvites(ctx, a.session, response.Rooms.Invite, a.allowFunc(), a.logger)
	a.logger.Info("matrix transport ready", "joined_rooms", len(response.Rooms.Join))

	return service.RunSyncLoop(ctx, a.session, service.SyncConfig{
		Filter:     matrixSyncFilter,
		Timeout:    int(a.syncTimeout / time.Millisecond),
		MaxBackoff: a.maxBackoff,
	}, sinceToken, a.handleSync, a.clock, a.logger)
}

func (a *MatrixAdapter) allowFunc() func(ref.RoomID) bool {
	if a.allowed == nil {
		return nil
	}
	return func(roomID ref.RoomID) bool { return a.allowed[roomID] }
}

func (a *MatrixAdapter) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	service.AcceptInvites(ctx, a.session, response.Rooms.Invite, a.allowFunc(), a.logger)

	roomIDs := make([]ref.RoomID, 0, len(response.Rooms.Join))
	for roomID := range response.Rooms.Join {
		roomIDs = append(roomIDs, roomID)
	}
	slices.SortFunc(roomIDs, func(x, y ref.RoomID) int {
		return strings.Compare(x.String(), y.String())
	})

	self := a.session.UserID()
	for _, roomID := range roomIDs {
		if a.allowed != nil && !a.allowed[roomID] {
			continue
		}
		for _, event := range response.Rooms.Join[roomID].Timeline.Events {
			if event.Type != ref.EventTypeMessage || event.Sender == self {
				continue
			}
			if event.MsgType() != messaging.MsgTypeText {
				continue
			}
			reply := &matrixReply{adapter: a, roomID: roomID, eventID: event.EventID}
			handled, err := a.handler.Handle(ctx, event.Body(), a.prefix, a.botName, reply)
			if err != nil {
				a.logger.Error("failed to answer command",
					"room_id", roomID,
					"event_id", event.EventID,
					"sender", event.Sender,
					"error", err,
				)
				continue
			}
			if handled {
				a.logger.Info("answered command", "room_id", roomID, "sender", event.Sender)
			}
		}
	}
}

// contentURI returns the mxc:// URI of entry's image, uploading it the
// first time this digest is sent.
func (a *MatrixAdapter) contentURI(ctx context.Context, entry *imagecache.Entry) (string, error) {
	if uri, ok := a.uploads.get(entry.Digest); ok {
		return uri, nil
	}
	uri, err := a.session.UploadMedia(ctx, entry.ContentType, ImageFilename, bytes.NewReader(entry.Data))
	if err != nil {
		return "", err
	}
	a.uploads.set(entry.Digest, uri)
	a.logger.Info("uploaded catalog image", "content_uri", uri, "digest", entry.Digest.Short())
	return uri, nil
}

type matrixReply struct {
	adapter *MatrixAdapter
	roomID  ref.RoomID
	eventID ref.EventID
}

func (r *matrixReply) Image(ctx context.Context, entry *imagecache.Entry) error {
	uri, err := r.adapter.contentURI(ctx, entry)
	if err != nil {
		return err
	}
	content := messaging.NewImage(Caption(entry), uri, messaging.ImageInfo{
		MimeType: entry.ContentType,
		Size:     len(entry.Data),
		Width:    entry.Width,
		Height:   entry.Height,
	})
	content.RelatesTo = messaging.ReplyTo(r.eventID)
	_, err = r.adapter.session.SendMessage(ctx, r.roomID, content)
	return err
}

func (r *matrixReply) Text(ctx context.Context, text string) error {
	content := messaging.NewNotice(text)
	content.RelatesTo = messaging.ReplyTo(r.eventID)
	_, err := r.adapter.session.SendMessage(ctx, r.roomID, content)
	return err
}
