// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/shopbot/lib/ref"
	"github.com/bureau-foundation/shopbot/lib/secret"
)

// testBuffer creates a secret.Buffer from a string for testing. The buffer
// is automatically closed when the test completes.
func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating test buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

// newTestSession starts server and returns a session authenticated with
// the token "test-token" against it.
func newTestSession(t *testing.T, handler http.HandlerFunc) *DirectSession {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer test-token" {
			writer.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(writer).Encode(MatrixError{Code: ErrCodeUnknownToken, Message: "bad token"})
			return
		}
		handler(writer, request)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	token, err := secret.NewFromString("test-token")
	if err != nil {
		t.Fatal(err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@shopbot:example.org"), token)
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:6167"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.baseURL != "http://localhost:6167" {
			t.Errorf("baseURL = %q", client.baseURL)
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{HomeserverURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
		if _, err := NewClient(ClientConfig{HomeserverURL: "ftp://matrix.example.org"}); err == nil {
			t.Fatal("expected error for non-http scheme")
		}
	})
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		var body LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding login body: %v", err)
		}
		if body.Identifier.User != "shopbot" || body.Password != "hunter2" || body.Type != "m.login.password" {
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(MatrixError{Code: ErrCodeForbidden, Message: "Invalid password"})
			return
		}
		json.NewEncoder(writer).Encode(map[string]string{
			"user_id":      "@shopbot:example.org",
			"access_token": "syt_issued",
			"device_id":    "DEVICE",
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}

	session, err := client.Login(context.Background(), "shopbot", testBuffer(t, "hunter2"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer session.Close()
	if session.UserID().String() != "@shopbot:example.org" || session.DeviceID() != "DEVICE" {
		t.Errorf("session = %s / %s", session.UserID(), session.DeviceID())
	}

	_, err = client.Login(context.Background(), "shopbot", testBuffer(t, "wrong"))
	if !IsMatrixError(err, ErrCodeForbidden) {
		t.Errorf("Login with wrong password error = %v, want M_FORBIDDEN", err)
	}
	if _, err := client.Login(context.Background(), "", testBuffer(t, "x")); err == nil {
		t.Error("Login without username should fail")
	}
}

func TestWhoAmIAndJoin(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/_matrix/client/v3/account/whoami":
			json.NewEncoder(writer).Encode(WhoAmIResponse{UserID: ref.MustParseUserID("@shopbot:example.org")})
		case "/_matrix/client/v3/join/!shop:example.org":
			if request.Method != http.MethodPost {
				t.Errorf("join method = %s", request.Method)
			}
			json.NewEncoder(writer).Encode(map[string]string{"room_id": "!shop:example.org"})
		default:
			t.Errorf("unexpected path %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	})

	userID, err := session.WhoAmI(context.Background())
	if err != nil || userID != session.UserID() {
		t.Fatalf("WhoAmI = %v, %v", userID, err)
	}
	roomID, err := session.JoinRoom(context.Background(), ref.MustParseRoomID("!shop:example.org"))
	if err != nil || roomID.String() != "!shop:example.org" {
		t.Fatalf("JoinRoom = %v, %v", roomID, err)
	}
}

func TestSendImageMessage(t *testing.T) {
	var transactions []string
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		prefix := "/_matrix/client/v3/rooms/!shop:example.org/send/m.room.message/"
		if request.Method != http.MethodPut || !strings.HasPrefix(request.URL.Path, prefix) {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		transactions = append(transactions, strings.TrimPrefix(request.URL.Path, prefix))

		var content map[string]any
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Errorf("decoding content: %v", err)
		}
		if content["msgtype"] != MsgTypeImage || content["url"] != "mxc://example.org/abc" {
			t.Errorf("content = %v", content)
		}
		info, _ := content["info"].(map[string]any)
		if info["mimetype"] != "image/jpeg" || info["w"] != float64(1000) {
			t.Errorf("info = %v", info)
		}
		relatesTo, _ := content["m.relates_to"].(map[string]any)
		inReplyTo, _ := relatesTo["m.in_reply_to"].(map[string]any)
		if inReplyTo["event_id"] != "$command" {
			t.Errorf("m.relates_to = %v", content["m.relates_to"])
		}
		json.NewEncoder(writer).Encode(map[string]string{"event_id": "$sent"})
	})

	image := NewImage("shop.jpg", "mxc://example.org/abc", ImageInfo{MimeType: "image/jpeg", Size: 1234, Width: 1000, Height: 800})
	eventID, _ := ref.ParseEventID("$command")
	image.RelatesTo = ReplyTo(eventID)

	roomID := ref.MustParseRoomID("!shop:example.org")
	for range 2 {
		sent, err := session.SendMessage(context.Background(), roomID, image)
		if err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
		if sent.String() != "$sent" {
			t.Errorf("event ID = %s", sent)
		}
	}
	if len(transactions) != 2 || transactions[0] == transactions[1] {
		t.Errorf("transaction IDs = %v, want two distinct", transactions)
	}
}

func TestUploadMedia(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/media/v3/upload" {
			t.Errorf("unexpected path %s", request.URL.Path)
		}
		if request.URL.Query().Get("filename") != "shop.jpg" {
			t.Errorf("filename = %q", request.URL.Query().Get("filename"))
		}
		if request.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("Content-Type = %q", request.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(request.Body)
		if string(body) != "\xff\xd8jpeg" {
			t.Errorf("body = %q", body)
		}
		json.NewEncoder(writer).Encode(UploadResponse{ContentURI: "mxc://example.org/uploaded"})
	})

	uri, err := session.UploadMedia(context.Background(), "image/jpeg", "shop.jpg", strings.NewReader("\xff\xd8jpeg"))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if uri != "mxc://example.org/uploaded" {
		t.Errorf("content URI = %q", uri)
	}
}

func TestSync(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("since") != "s1" || query.Get("timeout") != "30000" || query.Get("filter") != `{"room":{}}` {
			t.Errorf("query = %v", query)
		}
		writer.Write([]byte(`{
			"next_batch": "s2",
			"rooms": {
				"join": {"!shop:example.org": {"timeline": {"events": [
					{"event_id": "$1", "type": "m.room.message", "sender": "@alice:example.org",
					 "content": {"msgtype": "m.text", "body": "!shop"}}
				]}}},
				"invite": {"!new:example.org": {"invite_state": {"events": []}}}
			}
		}`))
	})

	response, err := session.Sync(context.Background(), SyncOptions{
		Since: "s1", Timeout: 30000, SetTimeout: true, Filter: `{"room":{}}`,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if response.NextBatch != "s2" || len(response.Rooms.Invite) != 1 {
		t.Errorf("response = %+v", response)
	}
	events := response.Rooms.Join[ref.MustParseRoomID("!shop:example.org")].Timeline.Events
	if len(events) != 1 || events[0].Body() != "!shop" || events[0].MsgType() != MsgTypeText {
		t.Errorf("timeline = %+v", events)
	}
}

func TestErrorResponses(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.URL.Path, "/join/") {
			writer.WriteHeader(http.StatusTooManyRequests)
			writer.Write([]byte(`{"errcode":"M_LIMIT_EXCEEDED","error":"Too many requests","retry_after_ms":2500}`))
			return
		}
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := session.JoinRoom(context.Background(), ref.MustParseRoomID("!shop:example.org"))
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		t.Fatalf("JoinRoom error = %v, want *MatrixError", err)
	}
	if matrixErr.StatusCode != http.StatusTooManyRequests || matrixErr.RetryAfter() != 2500*time.Millisecond {
		t.Errorf("MatrixError = %+v", matrixErr)
	}

	_, err = session.WhoAmI(context.Background())
	var unexpected *MatrixError
	if err == nil || errors.As(err, &unexpected) {
		t.Fatalf("WhoAmI error = %v, want plain error for non-JSON body", err)
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "bad gateway") {
		t.Errorf("error = %v, want status and body", err)
	}
}
