// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

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

	"github.com/bureau-foundation/shopbot/lib/secret"
)

const testToken = "123456:TEST-token"

func newTestClient(t *testing.T, handler func(method string, writer http.ResponseWriter, request *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(request.URL.Path, prefix) {
			writer.WriteHeader(http.StatusUnauthorized)
			writer.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
			return
		}
		handler(strings.TrimPrefix(request.URL.Path, prefix), writer, request)
	}))
	t.Cleanup(server.Close)
	return newClientFor(t, server.URL)
}

func newClientFor(t *testing.T, baseURL string) *Client {
	t.Helper()
	token, err := secret.NewFromString(testToken)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { token.Close() })
	client, err := NewClient(Config{Token: token, BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeResult(t *testing.T, writer http.ResponseWriter, result any) {
	t.Helper()
	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	json.NewEncoder(writer).Encode(apiResponse{OK: true, Result: encoded})
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("NewClient without a token should fail")
	}
}

func TestGetMe(t *testing.T) {
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		if method != "getMe" {
			t.Errorf("method = %q", method)
		}
		writeResult(t, writer, User{ID: 42, IsBot: true, FirstName: "Shop", Username: "fn_shop_bot"})
	})

	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if user.Username != "fn_shop_bot" || !user.IsBot {
		t.Errorf("user = %+v", user)
	}
}

func TestGetUpdates(t *testing.T) {
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		var body GetUpdatesRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if method != "getUpdates" || body.Offset != 11 || body.Timeout != 30 {
			t.Errorf("getUpdates %s %+v", method, body)
		}
		writeResult(t, writer, []Update{
			{UpdateID: 11, Message: &Message{MessageID: 5, Chat: Chat{ID: -100, Type: "group"}, Text: "/shop"}},
			{UpdateID: 12},
		})
	})

	updates, err := client.GetUpdates(context.Background(), GetUpdatesRequest{Offset: 11, Timeout: 30})
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 || updates[0].Message.Text != "/shop" || updates[1].Message != nil {
		t.Errorf("updates = %+v", updates)
	}
}

func TestSendUpload(t *testing.T) {
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		if method != "sendPhoto" {
			t.Errorf("method = %q", method)
		}
		if err := request.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if request.FormValue("chat_id") != "-100" {
			t.Errorf("chat_id = %q", request.FormValue("chat_id"))
		}
		if request.FormValue("reply_parameters") != `{"message_id":5,"allow_sending_without_reply":true}` {
			t.Errorf("reply_parameters = %q", request.FormValue("reply_parameters"))
		}
		file, header, err := request.FormFile("photo")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "shop.jpg" || string(data) != "\xff\xd8jpeg" {
			t.Errorf("photo %q = %q", header.Filename, data)
		}
		writeResult(t, writer, Message{MessageID: 6, Photo: []PhotoSize{
			{FileID: "small", Width: 90, Height: 72},
			{FileID: "large", Width: 1000, Height: 800},
			{FileID: "medium", Width: 320, Height: 256},
		}})
	})

	message, err := client.SendPhoto(context.Background(), Upload{
		ChatID:          -100,
		Data:            []byte("\xff\xd8jpeg"),
		Filename:        "shop.jpg",
		ReplyParameters: ReplyTo(5),
	})
	if err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	if message.LargestPhoto() != "large" {
		t.Errorf("LargestPhoto = %q, want large", message.LargestPhoto())
	}
}

func TestSendPhotoByFileID(t *testing.T) {
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", request.Header.Get("Content-Type"))
		}
		var body map[string]any
		json.NewDecoder(request.Body).Decode(&body)
		if body["photo"] != "large" || body["chat_id"] != float64(7) {
			t.Errorf("body = %v", body)
		}
		writeResult(t, writer, Message{MessageID: 8})
	})

	if _, err := client.SendPhoto(context.Background(), Upload{ChatID: 7, FileID: "large"}); err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	if _, err := client.SendPhoto(context.Background(), Upload{ChatID: 7}); err == nil {
		t.Error("SendPhoto with neither FileID nor Data should fail")
	}
	if _, err := client.SendPhoto(context.Background(), Upload{ChatID: 7, FileID: "x", Data: []byte("y")}); err == nil {
		t.Error("SendPhoto with both FileID and Data should fail")
	}
}

func TestSendDocument(t *testing.T) {
	requests := make(chan string, 4)
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		if method != "sendDocument" {
			t.Errorf("method = %q, want sendDocument", method)
		}
		if strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data") {
			file, header, err := request.FormFile("document")
			if err != nil {
				t.Errorf("FormFile(document): %v", err)
				return
			}
			defer file.Close()
			data, _ := io.ReadAll(file)
			requests <- "upload " + header.Filename + " " + string(data) + " " + request.FormValue("caption")
		} else {
			var body map[string]any
			json.NewDecoder(request.Body).Decode(&body)
			if _, ok := body["photo"]; ok {
				t.Errorf("document resend carries a photo field: %v", body)
			}
			document, _ := body["document"].(string)
			requests <- "resend " + document
		}
		writeResult(t, writer, Message{MessageID: 9, Document: &Document{FileID: "doc-1", FileName: "shop.jpg"}})
	})

	message, err := client.SendDocument(context.Background(), Upload{
		ChatID:   -100,
		Data:     []byte("\xff\xd8tall"),
		Filename: "shop.jpg",
		Caption:  "Item shop",
	})
	if err != nil {
		t.Fatalf("SendDocument upload: %v", err)
	}
	if message.SentFileID() != "doc-1" || message.LargestPhoto() != "" {
		t.Errorf("SentFileID = %q, LargestPhoto = %q", message.SentFileID(), message.LargestPhoto())
	}
	if _, err := client.SendDocument(context.Background(), Upload{ChatID: -100, FileID: "doc-1"}); err != nil {
		t.Fatalf("SendDocument by file_id: %v", err)
	}
	if _, err := client.SendDocument(context.Background(), Upload{ChatID: -100}); err == nil {
		t.Error("SendDocument with neither FileID nor Data should fail")
	}

	close(requests)
	var got []string
	for request := range requests {
		got = append(got, request)
	}
	want := []string{"upload shop.jpg \xff\xd8tall Item shop", "resend doc-1"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("requests = %q, want %q", got, want)
	}
}

func TestSentFileID(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		want    string
	}{
		{"photo", Message{Photo: []PhotoSize{{FileID: "small", Width: 9, Height: 9}, {FileID: "big", Width: 90, Height: 90}}}, "big"},
		{"document", Message{Document: &Document{FileID: "doc"}}, "doc"},
		{"text", Message{Text: "hi"}, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.message.SentFileID(); got != test.want {
				t.Errorf("SentFileID = %q, want %q", got, test.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(method string, writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		writer.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))
	})

	_, err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != 429 || apiErr.RetryAfter != 3*time.Second {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestTransportErrorOmitsToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := newClientFor(t, baseURL)
	_, err := client.GetMe(context.Background())
	if err == nil {
		t.Fatal("GetMe against a closed server should fail")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("error leaks the bot token: %v", err)
	}
}
