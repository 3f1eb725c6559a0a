// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/ref"
	"github.com/bureau-foundation/shopbot/messaging"
)

// SyncConfig configures the Matrix /sync long-poll loop.
type SyncConfig struct {
	// Filter is the inline JSON filter restricting which event types
	// the homeserver returns.
	Filter string

	// Timeout is the long-poll timeout in milliseconds. The homeserver
	// holds the connection open for this duration when no events are
	// available, then returns an empty response. Default: 30000 (30s).
	Timeout int

	// MaxBackoff is the maximum duration between retry attempts on
	// transient /sync errors. The loop uses exponential backoff
	// starting at 1 second. Default: 30 seconds.
	MaxBackoff time.Duration
}

// SyncHandler is called for each /sync response. The next /sync poll
// starts after the handler returns, so handlers should not block for
// extended periods.
type SyncHandler func(ctx context.Context, response *messaging.SyncResponse)

// InitialSync performs the first Matrix /sync with no since token.
// Returns the next_batch token for the incremental loop and the full
// response. The homeserver answers immediately with current state
// rather than waiting for new events.
func InitialSync(ctx context.Context, session messaging.Session, filter string) (string, *messaging.SyncResponse, error) {
	response, err := session.Sync(ctx, messaging.SyncOptions{
		Filter:     filter,
		SetTimeout: true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("initial sync: %w", err)
	}
	return response.NextBatch, response, nil
}

// RunSyncLoop runs the incremental Matrix /sync long-poll loop. It
// polls the homeserver with the given since token and calls handler
// for each response until ctx is cancelled, then returns nil.
//
// Transient errors are retried with exponential backoff (1 second to
// config.MaxBackoff), or after the server's retry_after_ms on
// M_LIMIT_EXCEEDED. An M_UNKNOWN_TOKEN error ends the loop: the access
// token was revoked and no retry can succeed.
func RunSyncLoop(ctx context.Context, session messaging.Session, config SyncConfig, sinceToken string, handler SyncHandler, clk clock.Clock, logger *slog.Logger) error {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		options := messaging.SyncOptions{
			Since:      sinceToken,
			Timeout:    timeout,
			SetTimeout: true,
			Filter:     config.Filter,
		}

		response, err := session.Sync(ctx, options)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
				return fmt.Errorf("matrix access token rejected: %w", err)
			}
			wait := backoff
			var matrixErr *messaging.MatrixError
			if errors.As(err, &matrixErr) && matrixErr.RetryAfter() > 0 {
				wait = matrixErr.RetryAfter()
			}
			logger.Error("sync failed, retrying", "error", err, "backoff", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-clk.After(wait):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch

		handler(ctx, response)
	}
}

// AcceptInvites joins the rooms the bot has been invited to, in room ID
// order. When allow is non-nil, invites it rejects are skipped. Returns
// the room IDs that were successfully joined.
func AcceptInvites(ctx context.Context, session messaging.Session, invites map[ref.RoomID]messaging.InvitedRoom, allow func(ref.RoomID) bool, logger *slog.Logger) []ref.RoomID {
	roomIDs := make([]ref.RoomID, 0, len(invites))
	for roomID := range invites {
		roomIDs = append(roomIDs, roomID)
	}
	slices.SortFunc(roomIDs, func(a, b ref.RoomID) int {
		return strings.Compare(a.String(), b.String())
	})

	var accepted []ref.RoomID
	for _, roomID := range roomIDs {
		if allow != nil && !allow(roomID) {
			logger.Info("ignoring room invite outside the allow list", "room_id", roomID)
			continue
		}
		logger.Info("accepting room invite", "room_id", roomID)
		if _, err := session.JoinRoom(ctx, roomID); err != nil {
			logger.Error("failed to accept room invite",
				"room_id", roomID,
				"error", err,
			)
			continue
		}
		accepted = append(accepted, roomID)
	}
	return accepted
}
