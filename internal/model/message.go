// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "ChatBot"
	default:
		return string(s)
	}
}

// =============================================================================
// DELIVERY STATUS
// =============================================================================

// Delivery tracks the outcome of an optimistically appended user message.
// Messages loaded from the backend are always Confirmed.
type Delivery string

const (
	// DeliveryPending means the exchange carrying this message has not settled.
	DeliveryPending Delivery = "pending"
	// DeliveryConfirmed means the backend accepted the message.
	DeliveryConfirmed Delivery = "confirmed"
	// DeliveryFailed means the exchange settled without the backend
	// accepting the message. The message stays visible; it is never
	// silently dropped.
	DeliveryFailed Delivery = "failed"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// WelcomeText is the greeting shown at the top of every draft conversation.
const WelcomeText = "Hello! I'm your AI assistant. How can I help you today?"

// WelcomeMessageID is the fixed id of the greeting message.
const WelcomeMessageID = 1

// Message represents a single transcript entry.
//
// IDs are backend-issued positive integers once a message is persisted.
// Messages appended optimistically carry a locally issued negative id until
// (unless) the backend confirms them.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Delivery is only meaningful for optimistically sent user messages.
	Delivery Delivery `json:"delivery,omitempty"`
}

// NewUserMessage creates a user message with the given (provisional) id.
func NewUserMessage(id int64, text string) Message {
	return Message{
		ID:        id,
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
		Delivery:  DeliveryPending,
	}
}

// NewBotMessage creates a bot message with the given id.
func NewBotMessage(id int64, text string) Message {
	return Message{
		ID:        id,
		Text:      text,
		Sender:    SenderBot,
		Timestamp: time.Now(),
		Delivery:  DeliveryConfirmed,
	}
}

// WelcomeMessage returns the greeting every draft conversation starts with.
func WelcomeMessage() Message {
	return Message{
		ID:        WelcomeMessageID,
		Text:      WelcomeText,
		Sender:    SenderBot,
		Timestamp: time.Now(),
		Delivery:  DeliveryConfirmed,
	}
}

// IsProvisional reports whether the message still carries a locally issued id.
func (m Message) IsProvisional() bool {
	return m.ID < 0
}

// Preview returns a truncated single-line preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// CREDENTIAL TYPE
// =============================================================================

// Credential is the bearer token plus the username it authenticates.
// At most one credential exists process-wide at any time; absence means
// the session is unauthenticated.
type Credential struct {
	Token    string
	Username string
}
