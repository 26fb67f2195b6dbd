// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the credential lifecycle: login, registration, logout,
// and persistence of the session across restarts.
//
// A credential is a bearer token plus the username it belongs to. The
// package never inspects the token; expiry is only ever learned from the
// backend rejecting a call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/model"
	"github.com/morganforge/chatmc-tui/internal/statestore"
)

// Store keys for the persisted credential.
const (
	keyToken    = "auth.token"
	keyUsername = "auth.username"
)

// ErrPendingApproval indicates registration succeeded but the account needs
// admin approval before it can log in.
var ErrPendingApproval = errors.New("account pending approval")

// Session tracks the current credential. Safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	client *api.Client
	store  *statestore.Store
	log    logging.Logger
	cred   model.Credential
}

// NewSession creates a session backed by the given API client and store.
func NewSession(client *api.Client, store *statestore.Store, log logging.Logger) *Session {
	if log == nil {
		log = logging.Nop()
	}
	return &Session{client: client, store: store, log: log}
}

// Init restores a persisted credential, if any. A store failure is not
// fatal: the session simply starts unauthenticated.
func (s *Session) Init(ctx context.Context) {
	token, err := s.store.GetString(ctx, keyToken)
	if err != nil {
		s.log.Warnf("could not restore session: %v", err)
		return
	}
	if token == "" {
		return
	}
	username, err := s.store.GetString(ctx, keyUsername)
	if err != nil {
		s.log.Warnf("could not restore session username: %v", err)
		return
	}

	s.mu.Lock()
	s.cred = model.Credential{Token: token, Username: username}
	s.mu.Unlock()
	s.log.Infof("restored session for %s", username)
}

// Login authenticates and installs the credential. On success the
// credential is persisted so the session survives a restart.
func (s *Session) Login(ctx context.Context, username, password string) (model.Credential, error) {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		return model.Credential{}, err
	}
	if resp.Token == "" {
		// Backend accepted the login but sent no token; treat as rejection.
		return model.Credential{}, fmt.Errorf("%w: no token in response", api.ErrInvalidCredentials)
	}

	cred := model.Credential{Token: resp.Token, Username: resp.Username}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	if err := s.persist(ctx, cred); err != nil {
		// The in-memory session is still valid; only restart continuity
		// is lost.
		s.log.Warnf("could not persist session: %v", err)
	}
	s.log.Infof("logged in as %s", cred.Username)
	return cred, nil
}

// Register creates an account. Registration never yields a usable session:
// when the backend returns no token the account awaits admin approval and
// ErrPendingApproval is returned with the created username.
func (s *Session) Register(ctx context.Context, username, email, password string) (string, error) {
	resp, err := s.client.Register(ctx, username, email, password)
	if err != nil {
		return "", err
	}
	s.log.Infof("registered account %s", resp.Username)
	if resp.Token == "" {
		return resp.Username, ErrPendingApproval
	}
	// Even with a token, the caller must log in explicitly: registration
	// and authentication stay separate operations.
	return resp.Username, nil
}

// Logout drops the credential and clears persisted state. Idempotent; a
// failure to clear the store does not keep the session alive.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.cred.Token != ""
	username := s.cred.Username
	s.cred = model.Credential{}
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warnf("could not clear persisted session: %v", err)
	}
	if wasAuthenticated {
		s.log.Infof("logged out %s", username)
	}
}

// Credential returns the current credential; zero value when logged out.
func (s *Session) Credential() model.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// IsAuthenticated reports whether a credential is installed.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Token != ""
}

// Token returns the current bearer token, or "". Suitable as an
// api.TokenSource so a re-login takes effect without rebuilding the client.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Token
}

// persist writes the credential under the fixed store keys.
func (s *Session) persist(ctx context.Context, cred model.Credential) error {
	if err := s.store.SetString(ctx, keyToken, cred.Token); err != nil {
		return err
	}
	return s.store.SetString(ctx, keyUsername, cred.Username)
}
