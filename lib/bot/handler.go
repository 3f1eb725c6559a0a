// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/shopbot/lib/imagecache"
)

// NotReadyMessage is the reply to "show catalog" before the first
// successful refresh.
const NotReadyMessage = "The shop is not loaded yet. Please try again later."

// HelpMessage is the reply to /start and /help.
const HelpMessage = "Send /shop to see today's Fortnite item shop."

// ImageFilename names the uploaded catalog image.
const ImageFilename = "shop.jpg"

// Reply delivers a response to the chat a command came from.
type Reply interface {
	Image(ctx context.Context, entry *imagecache.Entry) error
	Text(ctx context.Context, text string) error
}

// Handler implements the bot commands over the image cache.
type Handler struct {
	cache  *imagecache.Cache
	logger *slog.Logger
}

// NewHandler returns a Handler reading cache. Panics if cache is nil.
func NewHandler(cache *imagecache.Cache, logger *slog.Logger) *Handler {
	if cache == nil {
		panic("bot.NewHandler: cache is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{cache: cache, logger: logger}
}

// ShowCatalog replies with the cached image, or NotReadyMessage when
// nothing is cached yet. It never triggers a fetch.
func (h *Handler) ShowCatalog(ctx context.Context, reply Reply) error {
	entry := h.cache.Get()
	if entry == nil {
		h.logger.Info("catalog requested before first refresh")
		return reply.Text(ctx, NotReadyMessage)
	}
	if err := reply.Image(ctx, entry); err != nil {
		return fmt.Errorf("sending catalog image: %w", err)
	}
	return nil
}

// Help replies with HelpMessage.
func (h *Handler) Help(ctx context.Context, reply Reply) error {
	return reply.Text(ctx, HelpMessage)
}

// Handle dispatches body to the matching command. handled is false
// when body is not a command this bot knows.
func (h *Handler) Handle(ctx context.Context, body, prefix, botName string, reply Reply) (handled bool, err error) {
	switch ParseCommand(body, prefix, botName) {
	case CommandShop:
		return true, h.ShowCatalog(ctx, reply)
	case CommandStart, CommandHelp:
		return true, h.Help(ctx, reply)
	default:
		return false, nil
	}
}

// Caption describes entry for the image message.
func Caption(entry *imagecache.Entry) string {
	return "Fortnite item shop, " + entry.FetchedAt.UTC().Format("2 January 2006")
}
