// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/telegram"
)

// TelegramClient is the Bot API surface the adapter uses.
// *telegram.Client implements it.
type TelegramClient interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, request telegram.GetUpdatesRequest) ([]telegram.Update, error)
	SendMessage(ctx context.Context, request telegram.SendMessageRequest) (*telegram.Message, error)
	SendPhoto(ctx context.Context, upload telegram.Upload) (*telegram.Message, error)
	SendDocument(ctx context.Context, upload telegram.Upload) (*telegram.Message, error)
}

// TelegramConfig configures a TelegramAdapter.
type TelegramConfig struct {
	// Client is required.
	Client TelegramClient

	// Handler answers commands. Required.
	Handler *Handler

	// PollTimeout is the getUpdates long-poll wait. Default 30s.
	PollTimeout time.Duration

	// MaxBackoff bounds retry waits after getUpdates errors. Default 30s.
	MaxBackoff time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// TelegramAdapter serves commands over Bot API long polling.
type TelegramAdapter struct {
	client      TelegramClient
	handler     *Handler
	pollTimeout time.Duration
	maxBackoff  time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	uploads     uploadMemo
}

// NewTelegramAdapter validates config and returns an adapter.
func NewTelegramAdapter(config TelegramConfig) (*TelegramAdapter, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("bot: Telegram client is required")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("bot: Handler is required")
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 30 * time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &TelegramAdapter{
		client:      config.Client,
		handler:     config.Handler,
		pollTimeout: config.PollTimeout,
		maxBackoff:  config.MaxBackoff,
		clock:       config.Clock,
		logger:      config.Logger.With("transport", "telegram"),
	}, nil
}

// Run validates the token with getMe and then polls for updates until
// ctx is cancelled. Updates queued while the bot was down are answered.
// Returns nil on cancellation, or an error when the token is rejected.
func (a *TelegramAdapter) Run(ctx context.Context) error {
	me, err := a.client.GetMe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("telegram getMe: %w", err)
	}
	logger := a.logger.With("bot", me.Username)
	logger.Info("telegram transport ready")

	var offset int64
	backoff := time.Second
	for {
		updates, err := a.client.GetUpdates(ctx, telegram.GetUpdatesRequest{
			Offset:         offset,
			Timeout:        int(a.pollTimeout / time.Second),
			AllowedUpdates: []string{"message"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := backoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) {
				if apiErr.Code == http.StatusUnauthorized {
					return fmt.Errorf("telegram token rejected: %w", err)
				}
				if apiErr.RetryAfter > 0 {
					wait = apiErr.RetryAfter
				}
			}
			logger.Error("getUpdates failed, retrying", "error", err, "backoff", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-a.clock.After(wait):
			}
			backoff = min(backoff*2, a.maxBackoff)
			continue
		}
		backoff = time.Second

		for _, update := range updates {
			offset = max(offset, update.UpdateID+1)
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, me.Username, update.Message, logger)
		}
	}
}

func (a *TelegramAdapter) handleMessage(ctx context.Context, botName string, message *telegram.Message, logger *slog.Logger) {
	reply := &telegramReply{adapter: a, chatID: message.Chat.ID, messageID: message.MessageID}
	handled, err := a.handler.Handle(ctx, message.Text, "/", botName, reply)
	if err != nil {
		logger.Error("failed to answer command",
			"chat_id", message.Chat.ID,
			"message_id", message.MessageID,
			"error", err,
		)
		return
	}
	if handled {
		logger.Info("answered command", "chat_id", message.Chat.ID)
	}
}

type telegramReply struct {
	adapter   *TelegramAdapter
	chatID    int64
	messageID int64
}

// Image resends the remembered file_id for this digest when there is
// one, falling back to a fresh upload if Telegram no longer accepts it.
// Images beyond telegram.MaxPhotoDimensions go out as documents.
func (r *telegramReply) Image(ctx context.Context, entry *imagecache.Entry) error {
	send := r.adapter.client.SendPhoto
	if entry.Width+entry.Height > telegram.MaxPhotoDimensions {
		send = r.adapter.client.SendDocument
		r.adapter.logger.Debug("image too large for sendPhoto, sending as document",
			"width", entry.Width,
			"height", entry.Height,
		)
	}

	upload := telegram.Upload{
		ChatID:          r.chatID,
		Caption:         Caption(entry),
		ReplyParameters: telegram.ReplyTo(r.messageID),
	}
	if fileID, ok := r.adapter.uploads.get(entry.Digest); ok {
		upload.FileID = fileID
		_, err := send(ctx, upload)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		r.adapter.logger.Warn("cached file_id rejected, uploading again", "error", err)
		r.adapter.uploads.forget(entry.Digest)
		upload.FileID = ""
	}

	upload.Data = entry.Data
	upload.Filename = ImageFilename
	message, err := send(ctx, upload)
	if err != nil {
		return err
	}
	if fileID := message.SentFileID(); fileID != "" {
		r.adapter.uploads.set(entry.Digest, fileID)
	}
	return nil
}

func (r *telegramReply) Text(ctx context.Context, text string) error {
	_, err := r.adapter.client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:          r.chatID,
		Text:            text,
		ReplyParameters: telegram.ReplyTo(r.messageID),
	})
	return err
}
