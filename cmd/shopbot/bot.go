// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/shopbot/lib/bot"
	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/config"
	"github.com/bureau-foundation/shopbot/lib/ref"
	"github.com/bureau-foundation/shopbot/lib/refresh"
	"github.com/bureau-foundation/shopbot/lib/secret"
	"github.com/bureau-foundation/shopbot/lib/service"
	"github.com/bureau-foundation/shopbot/lib/telegram"
	"github.com/bureau-foundation/shopbot/lib/version"
	"github.com/bureau-foundation/shopbot/messaging"
)

func runBot(ctx context.Context, args []string, console streams) error {
	var (
		configPath  string
		showVersion bool
	)
	flagSet := newFlagSet("run", console)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $SHOPBOT_CONFIG, else defaults plus environment)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := parseFlags(flagSet, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Fprintf(console.stdout, "shopbot %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath, config.ModeBot)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(console.stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	trigger, err := cfg.Refresh.Trigger()
	if err != nil {
		return err
	}

	clk := clock.Real()
	httpClient := &http.Client{}

	chain, err := newPipeline(cfg, httpClient, clk, logger)
	if err != nil {
		return err
	}
	defer chain.Close()

	handler := bot.NewHandler(chain.cache, logger.With("component", "bot"))

	var transports []func(context.Context) error

	if cfg.Telegram.Enabled() {
		token, err := cfg.Telegram.Open()
		if err != nil {
			return fmt.Errorf("telegram token: %w", err)
		}
		defer token.Close()
		adapter, err := newTelegramTransport(cfg.Telegram, token, httpClient, handler, clk, logger)
		if err != nil {
			return err
		}
		transports = append(transports, adapter.Run)
	}

	if cfg.Matrix.Enabled() {
		session, err := openMatrixSession(ctx, cfg.Matrix, httpClient, logger)
		if err != nil {
			return err
		}
		defer session.Close()
		rooms, err := cfg.Matrix.RoomIDs()
		if err != nil {
			return err
		}
		adapter, err := bot.NewMatrixAdapter(bot.MatrixConfig{
			Session:       session,
			Handler:       handler,
			CommandPrefix: cfg.Matrix.CommandPrefix,
			Rooms:         rooms,
			SyncTimeout:   cfg.Matrix.SyncTimeout.Std(),
			Clock:         clk,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		transports = append(transports, adapter.Run)
	}

	logger.Info("shopbot starting",
		"version", version.Info(),
		"catalog_url", chain.fetcher.URL(),
		"schedule", cfg.Refresh.Schedule,
		"transports", len(transports),
	)

	// The startup refresh completes before any transport serves. A
	// failure leaves the cache empty and commands get the not-ready reply
	// until a scheduled run succeeds.
	scheduler := refresh.NewScheduler(clk, logger.With("component", "scheduler"))
	if err := scheduler.RunOnce(ctx, chain.refresher.Refresh); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error("initial catalog refresh failed, waiting for the next scheduled run", "error", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return scheduler.RunPeriodically(groupCtx, trigger, chain.refresher.Refresh)
	})

	for _, transport := range transports {
		group.Go(func() error { return transport(groupCtx) })
	}

	if cfg.HTTP.Address != "" {
		server := service.NewStatusServer(service.StatusServerConfig{
			Address: cfg.HTTP.Address,
			Status: service.StatusConfig{
				Cache:   chain.cache,
				Refresh: chain.refresher,
				Clock:   clk,
			},
			Logger: logger.With("component", "http"),
		})
		group.Go(func() error { return server.Serve(groupCtx) })
	}

	err = group.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("shopbot stopped")
	return nil
}

func newTelegramTransport(cfg config.TelegramConfig, token *secret.Buffer, httpClient *http.Client, handler *bot.Handler, clk clock.Clock, logger *slog.Logger) (*bot.TelegramAdapter, error) {
	client, err := telegram.NewClient(telegram.Config{
		Token:      token,
		BaseURL:    cfg.APIURL,
		HTTPClient: httpClient,
		Logger:     logger.With("component", "telegram"),
	})
	if err != nil {
		return nil, err
	}
	return bot.NewTelegramAdapter(bot.TelegramConfig{
		Client:      client,
		Handler:     handler,
		PollTimeout: cfg.PollTimeout.Std(),
		Clock:       clk,
		Logger:      logger,
	})
}

// openMatrixSession builds a session from the configured access token,
// or logs in with the password file, and checks it with whoami.
func openMatrixSession(ctx context.Context, cfg config.MatrixConfig, httpClient *http.Client, logger *slog.Logger) (*messaging.DirectSession, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
		HTTPClient:    httpClient,
		Logger:        logger.With("component", "matrix"),
	})
	if err != nil {
		return nil, err
	}
	userID, err := ref.ParseUserID(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("matrix.user_id: %w", err)
	}

	var session *messaging.DirectSession
	if cfg.Configured() {
		token, err := cfg.Open()
		if err != nil {
			return nil, fmt.Errorf("matrix token: %w", err)
		}
		session, err = client.SessionFromToken(userID, token)
		if err != nil {
			token.Close()
			return nil, err
		}
	} else {
		password, err := secret.ReadFromPath(cfg.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("reading matrix password file: %w", err)
		}
		defer password.Close()
		session, err = client.Login(ctx, userID.Localpart(), password)
		if err != nil {
			return nil, fmt.Errorf("matrix login: %w", err)
		}
	}

	whoami, err := session.WhoAmI(ctx)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("validating matrix session: %w", err)
	}
	if whoami != userID {
		session.Close()
		return nil, fmt.Errorf("matrix token belongs to %s, configured user is %s", whoami, userID)
	}
	logger.Info("matrix session valid", "user_id", whoami)
	return session, nil
}
