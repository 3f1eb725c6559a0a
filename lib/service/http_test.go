// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/testutil"
)

func fetchStatus(t *testing.T, url string) (int, []byte) {
	t.Helper()
	response, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return response.StatusCode, body
}

func TestStatusServerReportsFirstRefresh(t *testing.T) {
	cache := imagecache.New()
	server := NewStatusServer(StatusServerConfig{
		Address:      "127.0.0.1:0",
		Status:       StatusConfig{Cache: cache},
		DrainTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ctx) }()
	testutil.RequireClosed(t, server.Bound(), 5*time.Second, "status server listening")

	if code, _ := fetchStatus(t, server.URL("/healthz")); code != http.StatusServiceUnavailable {
		t.Fatalf("/healthz before the first refresh = %d, want 503", code)
	}

	cache.Set(populatedCache(t).Get())

	if code, _ := fetchStatus(t, server.URL("/healthz")); code != http.StatusOK {
		t.Fatalf("/healthz after the first refresh = %d, want 200", code)
	}
	code, body := fetchStatus(t, server.URL("/status"))
	if code != http.StatusOK {
		t.Fatalf("/status = %d", code)
	}
	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decoding /status: %v", err)
	}
	if !status.Ready || status.Image == nil || status.Image.Digest != cache.Get().Digest.String() {
		t.Errorf("/status = %s", body)
	}

	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "status server stopping"); err != nil {
		t.Errorf("Serve = %v, want nil after cancellation", err)
	}
	if _, err := http.Get(server.URL("/healthz")); err == nil {
		t.Error("status server still answering after Serve returned")
	}
}

func TestStatusServerAddressInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer occupied.Close()

	server := NewStatusServer(StatusServerConfig{
		Address: occupied.Addr().String(),
		Status:  StatusConfig{Cache: imagecache.New()},
	})
	err = server.Serve(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status endpoint") {
		t.Fatalf("Serve on an occupied port = %v, want a listen error", err)
	}
	select {
	case <-server.Bound():
		t.Error("Bound closed although listening failed")
	default:
	}
}

func TestStatusServerCancelledBeforeServe(t *testing.T) {
	server := NewStatusServer(StatusServerConfig{
		Address: "127.0.0.1:0",
		Status:  StatusConfig{Cache: imagecache.New()},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Serve with a cancelled context"); err != nil {
		t.Errorf("Serve = %v, want nil", err)
	}
}

func TestNewStatusServerPanics(t *testing.T) {
	tests := []struct {
		name   string
		config StatusServerConfig
	}{
		{"missing address", StatusServerConfig{Status: StatusConfig{Cache: imagecache.New()}}},
		{"missing cache", StatusServerConfig{Address: "127.0.0.1:0"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("NewStatusServer did not panic")
				}
			}()
			NewStatusServer(test.config)
		})
	}
}
