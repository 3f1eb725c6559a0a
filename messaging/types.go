// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/shopbot/lib/ref"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string         `json:"type"`
	Identifier               UserIdentifier `json:"identifier"`
	Password                 string         `json:"password"`
	InitialDeviceDisplayName string         `json:"initial_device_display_name,omitempty"`
}

// UserIdentifier names the account in a LoginRequest.
type UserIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// Message types.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
	MsgTypeImage  = "m.image"
)

// MessageContent is the content of a text m.room.message event.
type MessageContent struct {
	MsgType   string     `json:"msgtype"`
	Body      string     `json:"body"`
	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// ImageContent is the content of an m.image m.room.message event.
type ImageContent struct {
	MsgType   string     `json:"msgtype"`
	Body      string     `json:"body"`
	URL       string     `json:"url"`
	Info      ImageInfo  `json:"info"`
	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// ImageInfo describes an uploaded image.
type ImageInfo struct {
	MimeType string `json:"mimetype"`
	Size     int    `json:"size"`
	Width    int    `json:"w"`
	Height   int    `json:"h"`
}

// RelatesTo carries the reply relation of a message.
type RelatesTo struct {
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo identifies the event a message replies to.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// NewNotice creates an m.notice message, the msgtype bots use so other
// bots do not react to them.
func NewNotice(body string) MessageContent {
	return MessageContent{
		MsgType: MsgTypeNotice,
		Body:    body,
	}
}

// NewImage creates an m.image message for an uploaded mxc:// URI.
func NewImage(body, contentURI string, info ImageInfo) ImageContent {
	return ImageContent{
		MsgType: MsgTypeImage,
		Body:    body,
		URL:     contentURI,
		Info:    info,
	}
}

// ReplyTo returns a relation marking a message as a reply to eventID.
// The zero EventID yields nil.
func ReplyTo(eventID ref.EventID) *RelatesTo {
	if eventID.IsZero() {
		return nil
	}
	return &RelatesTo{InReplyTo: &InReplyTo{EventID: eventID}}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// Body returns content.body when it is a string.
func (e Event) Body() string {
	body, _ := e.Content["body"].(string)
	return body
}

// MsgType returns content.msgtype when it is a string.
func (e Event) MsgType() string {
	msgType, _ := e.Content["msgtype"].(string)
	return msgType
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains room updates from the /sync response.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom is a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom is a room the user has been invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom is a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events for a room.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events for a room.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is the response from sending an event.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is the response from the whoami endpoint.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// UploadResponse is the response from media upload.
type UploadResponse struct {
	ContentURI string `json:"content_uri"`
}
