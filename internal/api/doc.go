// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the ChatBot MC backend.
//
// The backend speaks JSON over HTTP; every endpoint except login and
// register requires a bearer token. The client maps HTTP failures onto a
// small sentinel-error taxonomy so callers can branch with errors.Is:
//
//   - ErrInvalidCredentials: login rejected (non-2xx)
//   - ErrRegistrationFailed: registration rejected (non-2xx)
//   - ErrUnauthorized: 401/403 on an authenticated call (session expired)
//   - ErrNotFound: 404 on a conversation that no longer exists
//   - ErrNetwork: the request could not complete (including timeouts)
//
// The chat exchange is never retried automatically; every failure is
// terminal for that attempt and surfaced to the caller.
package api
