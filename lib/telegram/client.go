// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/shopbot/lib/netutil"
	"github.com/bureau-foundation/shopbot/lib/secret"
	"github.com/bureau-foundation/shopbot/lib/version"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Config holds configuration for creating a Client.
type Config struct {
	// Token is the bot token from BotFather. Required. The client
	// borrows it; the caller closes it after the client is done.
	Token *secret.Buffer

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is used for all requests. Its timeout must exceed the
	// getUpdates long-poll timeout. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client calls Bot API methods.
type Client struct {
	token      *secret.Buffer
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config Config) (*Client, error) {
	if config.Token == nil || config.Token.Len() == 0 {
		return nil, fmt.Errorf("telegram: Token is required")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("telegram: invalid BaseURL %q: %w", baseURL, err)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		token:      config.Token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetMe returns the bot's own user, validating the token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUpdates long-polls for new updates.
func (c *Client) GetUpdates(ctx context.Context, request GetUpdatesRequest) ([]Update, error) {
	var updates []Update
	if err := c.call(ctx, "getUpdates", request, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, request SendMessageRequest) (*Message, error) {
	var message Message
	if err := c.call(ctx, "sendMessage", request, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// SendPhoto sends a photo, by file_id or by uploading upload.Data.
// Telegram rejects photos larger than MaxPhotoDimensions.
func (c *Client) SendPhoto(ctx context.Context, upload Upload) (*Message, error) {
	return c.send(ctx, "sendPhoto", "photo", upload)
}

// SendDocument sends a file as a document, by file_id or by uploading
// upload.Data. Documents have no dimension limit.
func (c *Client) SendDocument(ctx context.Context, upload Upload) (*Message, error) {
	return c.send(ctx, "sendDocument", "document", upload)
}

// send implements the file-sending methods; field names the file
// parameter.
func (c *Client) send(ctx context.Context, method, field string, upload Upload) (*Message, error) {
	if (upload.FileID == "") == (len(upload.Data) == 0) {
		return nil, fmt.Errorf("telegram: %s needs exactly one of FileID and Data", method)
	}

	var message Message
	if upload.FileID != "" {
		request := map[string]any{
			"chat_id": upload.ChatID,
			field:     upload.FileID,
		}
		if upload.Caption != "" {
			request["caption"] = upload.Caption
		}
		if upload.ReplyParameters != nil {
			request["reply_parameters"] = upload.ReplyParameters
		}
		if err := c.call(ctx, method, request, &message); err != nil {
			return nil, err
		}
		return &message, nil
	}

	body, contentType, err := uploadForm(field, upload)
	if err != nil {
		return nil, err
	}
	if err := c.post(ctx, method, contentType, body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func uploadForm(field string, upload Upload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{"chat_id": strconv.FormatInt(upload.ChatID, 10)}
	if upload.Caption != "" {
		fields["caption"] = upload.Caption
	}
	if upload.ReplyParameters != nil {
		encoded, err := json.Marshal(upload.ReplyParameters)
		if err != nil {
			return nil, "", fmt.Errorf("telegram: encoding reply parameters: %w", err)
		}
		fields["reply_parameters"] = string(encoded)
	}
	for _, name := range []string{"chat_id", "caption", "reply_parameters"} {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("telegram: writing form field %s: %w", name, err)
		}
	}

	filename := upload.Filename
	if filename == "" {
		filename = field + ".jpg"
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("telegram: creating %s part: %w", field, err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("telegram: writing %s part: %w", field, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("telegram: closing form: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// call invokes method with a JSON body (or none when params is nil) and
// decodes the result into result.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	var body io.Reader
	contentType := ""
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("telegram: encoding %s request: %w", method, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.post(ctx, method, contentType, body, result)
}

func (c *Client) post(ctx context.Context, method, contentType string, body io.Reader, result any) error {
	requestURL := c.baseURL + "/bot" + c.token.String() + "/" + method
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return fmt.Errorf("telegram: creating %s request: %w", method, redact(err))
	}
	request.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, redact(err))
	}
	defer response.Body.Close()

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("telegram: reading %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("telegram: unexpected %d response to %s: %s",
			response.StatusCode, method, netutil.ErrorBody(bytes.NewReader(data)))
	}
	if !envelope.OK {
		apiErr := &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = response.StatusCode
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decoding %s result: %w", method, err)
		}
	}
	return nil
}

// redact drops the request URL, which embeds the bot token, from
// transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
