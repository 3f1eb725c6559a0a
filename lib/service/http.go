// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultDrainTimeout bounds how long Serve waits for in-flight
// requests after its context is cancelled.
const DefaultDrainTimeout = 5 * time.Second

// StatusServerConfig configures a StatusServer.
type StatusServerConfig struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:9090".
	// Port 0 picks a free port; Addr reports it. Required.
	Address string

	// Status configures the handler; see NewStatusHandler.
	Status StatusConfig

	// DrainTimeout defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration

	Logger *slog.Logger
}

// StatusServer exposes NewStatusHandler on a TCP listener for the
// lifetime of a context.
type StatusServer struct {
	address string
	drain   time.Duration
	logger  *slog.Logger
	server  *http.Server

	// bound is closed once the listener exists; addr is set before.
	bound chan struct{}
	addr  net.Addr
}

// NewStatusServer builds the server. It does not listen until Serve.
func NewStatusServer(config StatusServerConfig) *StatusServer {
	if config.Address == "" {
		panic("service.NewStatusServer: Address is required")
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Status.Logger == nil {
		config.Status.Logger = config.Logger
	}

	return &StatusServer{
		address: config.Address,
		drain:   config.DrainTimeout,
		logger:  config.Logger,
		server: &http.Server{
			Handler: NewStatusHandler(config.Status),

			// /catalog.jpg is the largest response, a few megabytes.
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(config.Logger.Handler(), slog.LevelWarn),
		},
		bound: make(chan struct{}),
	}
}

// Bound is closed once Serve has a listener. It stays open if Serve
// fails to listen.
func (s *StatusServer) Bound() <-chan struct{} {
	return s.bound
}

// Addr is the listener address. Valid after Bound is closed.
func (s *StatusServer) Addr() net.Addr {
	return s.addr
}

// URL returns an http URL for path on the bound address.
func (s *StatusServer) URL(path string) string {
	return "http://" + s.addr.String() + path
}

// Serve listens and answers requests until ctx is cancelled, then
// drains in-flight requests for up to the drain timeout. A cancelled
// context is a clean stop and returns nil.
func (s *StatusServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("status endpoint: %w", err)
	}
	s.addr = listener.Addr()
	close(s.bound)
	s.logger.Info("status endpoint listening", "url", s.URL("/status"))

	var shutdownErr error
	shutdownDone := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(shutdownDone)
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
		defer cancel()
		shutdownErr = s.server.Shutdown(drainCtx)
	})

	// Serve returns ErrServerClosed only after Shutdown started, which
	// happens only in the AfterFunc above.
	if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		if !stop() {
			<-shutdownDone
		}
		return fmt.Errorf("status endpoint: %w", err)
	}
	<-shutdownDone
	if shutdownErr != nil {
		s.logger.Warn("status endpoint drain incomplete", "error", shutdownErr)
		return fmt.Errorf("draining status endpoint: %w", shutdownErr)
	}
	s.logger.Info("status endpoint stopped")
	return nil
}
