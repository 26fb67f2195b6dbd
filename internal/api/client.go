// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is where a locally run backend listens.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds every request. An expired timeout is reported
	// as the generic network-failure case.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// sharedTransport pools connections for all backend requests.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Error variables for common backend failures.
var (
	// ErrInvalidCredentials indicates the backend rejected a login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRegistrationFailed indicates the backend rejected a registration.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrUnauthorized indicates the token was rejected on an authenticated
	// call (expired or invalidated session).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the conversation no longer exists remotely.
	ErrNotFound = errors.New("conversation not found")

	// ErrNetwork indicates the request could not complete.
	ErrNetwork = errors.New("network error")
)

// APIError represents a backend error response that maps to no sentinel.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token, or "" when the session is
// unauthenticated. It is read per request so a re-login takes effect without
// rebuilding the client.
type TokenSource func() string

// Client is an HTTP client for the ChatBot MC backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource TokenSource
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithTokenSource sets the bearer-token supplier for authenticated calls.
func (c *Client) WithTokenSource(src TokenSource) *Client {
	c.tokenSource = src
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login authenticates against POST /api/auth/login.
// A non-2xx reply maps to ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login",
		LoginRequest{Username: username, Password: password}, false, &out)
	if err != nil {
		return nil, mapAuthErr(err, ErrInvalidCredentials)
	}
	return &out, nil
}

// Register creates an account via POST /api/auth/register.
// A non-2xx reply maps to ErrRegistrationFailed. Success does not yield a
// usable session: the token field may be absent until the account is
// approved, and callers must not treat registration as login.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register",
		RegisterRequest{Username: username, Email: email, Password: password}, false, &out)
	if err != nil {
		return nil, mapAuthErr(err, ErrRegistrationFailed)
	}
	return &out, nil
}

// mapAuthErr collapses any backend rejection of an unauthenticated auth call
// into the given sentinel, leaving network failures as ErrNetwork.
func mapAuthErr(err error, sentinel error) error {
	if errors.Is(err, ErrNetwork) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// =============================================================================
// CHAT ENDPOINT
// =============================================================================

// Chat performs one prompt/response exchange via POST /api/llm/chat.
// conversationID is nil for the first message of a draft conversation; the
// response then carries the id the backend assigned.
//
// There is no retry: a failed exchange is terminal for that attempt.
func (c *Client) Chat(ctx context.Context, prompt string, conversationID *int64) (*ChatResponse, error) {
	var out ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/llm/chat",
		ChatRequest{Prompt: prompt, ConversationID: conversationID}, true, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// Conversations fetches the full conversation list via GET /api/conversations.
func (c *Client) Conversations(ctx context.Context) ([]ConversationDTO, error) {
	var out []ConversationDTO
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages fetches the authoritative message ordering for one conversation
// via GET /api/conversations/{id}/messages.
func (c *Client) Messages(ctx context.Context, conversationID int64) ([]ChatMessageDTO, error) {
	path := "/api/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages"
	var out []ChatMessageDTO
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenameConversation updates a conversation title via PATCH
// /api/conversations/{id} and returns the updated summary.
func (c *Client) RenameConversation(ctx context.Context, conversationID int64, title string) (*ConversationDTO, error) {
	path := "/api/conversations/" + strconv.FormatInt(conversationID, 10)
	var out ConversationDTO
	if err := c.doJSON(ctx, http.MethodPatch, path, RenameRequest{Title: title}, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation via DELETE /api/conversations/{id}.
func (c *Client) DeleteConversation(ctx context.Context, conversationID int64) error {
	path := "/api/conversations/" + strconv.FormatInt(conversationID, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, true, nil)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs one JSON request against the backend and decodes the reply
// into out (which may be nil for empty replies such as DELETE's 204).
//
// Error mapping for authenticated calls: 401/403 -> ErrUnauthorized,
// 404 -> ErrNotFound, transport failure -> ErrNetwork, anything else
// non-2xx -> *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "chatmc/0.1.0")
	if authed && c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header after the request so the token
	// never reaches logs through the request object.
	req.Header.Del("Authorization")

	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatusErr(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrNetwork, err)
	}
	return nil
}

// mapStatusErr converts a non-2xx reply into the error taxonomy.
func mapStatusErr(status int, body []byte) error {
	message := ""
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	default:
		return &APIError{Status: status, Message: message}
	}
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
