// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// AUTH PAYLOADS
// =============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the backend's reply to login and register.
//
// On register the token may be empty: accounts require admin approval
// before they can log in, so registration never yields a usable session.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// =============================================================================
// CHAT PAYLOADS
// =============================================================================

// ChatRequest is the body of POST /api/llm/chat.
// ConversationID is null for the first message of a draft conversation.
type ChatRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID *int64 `json:"conversationId"`
}

// ChatResponse is the backend's reply to a chat exchange. ConversationID is
// set when the exchange created a conversation server-side; MessageID is the
// persisted id of the bot reply when the backend reports one.
type ChatResponse struct {
	Response       string `json:"response"`
	MessageID      *int64 `json:"messageId,omitempty"`
	ConversationID *int64 `json:"conversationId,omitempty"`
}

// =============================================================================
// CONVERSATION PAYLOADS
// =============================================================================

// ConversationDTO is one entry of GET /api/conversations and the reply to
// PATCH /api/conversations/{id}.
type ConversationDTO struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

// ChatMessageDTO is one entry of GET /api/conversations/{id}/messages.
// Role is "USER" for user messages; anything else renders as the bot.
type ChatMessageDTO struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt Timestamp `json:"createdAt"`
}

// RenameRequest is the body of PATCH /api/conversations/{id}.
type RenameRequest struct {
	Title string `json:"title"`
}

// errorResponse is the backend's error envelope, when it sends one.
type errorResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// TIMESTAMP TYPE
// =============================================================================

// timestampLayouts are the wire formats the backend has been seen to emit.
// The backend serializes LocalDateTime without a zone and with a varying
// number of fractional digits, so RFC3339 alone does not parse it.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Timestamp wraps time.Time with lenient JSON decoding for the backend's
// zone-less timestamps. Zone-less values are interpreted as UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}
