// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import "encoding/json"

// User is a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// PhotoSize is one resolution of a sent photo.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Document is a file sent without Telegram's photo processing.
type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Message is an incoming or sent message.
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Date      int64       `json:"date"`
	Text      string      `json:"text,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *Document   `json:"document,omitempty"`
}

// LargestPhoto returns the file_id of the highest resolution in
// m.Photo, or "" when the message has no photo.
func (m *Message) LargestPhoto() string {
	best := -1
	for index, size := range m.Photo {
		if best < 0 || size.Width*size.Height > m.Photo[best].Width*m.Photo[best].Height {
			best = index
		}
	}
	if best < 0 {
		return ""
	}
	return m.Photo[best].FileID
}

// SentFileID returns the file_id a sent photo or document can be
// resent by, or "".
func (m *Message) SentFileID() string {
	if fileID := m.LargestPhoto(); fileID != "" {
		return fileID
	}
	if m.Document != nil {
		return m.Document.FileID
	}
	return ""
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// GetUpdatesRequest holds getUpdates parameters.
type GetUpdatesRequest struct {
	// Offset is one more than the last processed update_id.
	Offset int64 `json:"offset,omitempty"`
	// Timeout is the long-poll wait in seconds.
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SendMessageRequest holds sendMessage parameters.
type SendMessageRequest struct {
	ChatID          int64            `json:"chat_id"`
	Text            string           `json:"text"`
	ReplyParameters *ReplyParameters `json:"reply_parameters,omitempty"`
}

// ReplyParameters marks a message as a reply.
type ReplyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply,omitempty"`
}

// ReplyTo returns reply parameters for messageID, or nil for zero.
func ReplyTo(messageID int64) *ReplyParameters {
	if messageID == 0 {
		return nil
	}
	return &ReplyParameters{MessageID: messageID, AllowSendingWithoutReply: true}
}

// MaxPhotoDimensions is the largest width plus height sendPhoto
// accepts. Taller images go out as documents.
const MaxPhotoDimensions = 10000

// Upload describes a sendPhoto or sendDocument call. Exactly one of
// FileID and Data is set: FileID resends a file already on Telegram's
// servers, Data uploads new bytes as multipart/form-data.
type Upload struct {
	ChatID          int64
	FileID          string
	Data            []byte
	Filename        string
	Caption         string
	ReplyParameters *ReplyParameters
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}
