// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types used by the chat model.
// All backend work runs in commands; these messages deliver the outcomes
// back onto the UI loop.
package chat

import (
	"github.com/morganforge/chatmc-tui/internal/coordinator"
)

// coordinatorEventMsg delivers one event from the coordinator's channel.
type coordinatorEventMsg struct {
	Event coordinator.Event
}

// loginResultMsg reports a finished login attempt.
type loginResultMsg struct {
	Err error
}

// registerResultMsg reports a finished registration attempt.
type registerResultMsg struct {
	Err error
}

// sendResultMsg reports a settled exchange.
type sendResultMsg struct {
	Err error
}

// openResultMsg reports a conversation load.
type openResultMsg struct {
	ID  int64
	Err error
}

// refreshResultMsg reports a directory refresh.
type refreshResultMsg struct {
	Err error
}

// renameResultMsg reports a rename.
type renameResultMsg struct {
	Err error
}

// deleteResultMsg reports a delete.
type deleteResultMsg struct {
	Err error
}

// exportResultMsg reports a transcript export to disk.
type exportResultMsg struct {
	Path string
	Err  error
}

// noticeExpiredMsg clears the status bar notice.
type noticeExpiredMsg struct {
	Seq int
}
