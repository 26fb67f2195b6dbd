// chatmc TUI - a terminal client for the ChatBot MC backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/chatmc-tui/internal/api"
	"github.com/morganforge/chatmc-tui/internal/auth"
	"github.com/morganforge/chatmc-tui/internal/config"
	"github.com/morganforge/chatmc-tui/internal/coordinator"
	"github.com/morganforge/chatmc-tui/internal/directory"
	"github.com/morganforge/chatmc-tui/internal/logging"
	"github.com/morganforge/chatmc-tui/internal/statestore"
	"github.com/morganforge/chatmc-tui/internal/transcript"
	"github.com/morganforge/chatmc-tui/internal/ui/chat"
	"github.com/morganforge/chatmc-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("chatmc %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatmc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	log, err := logging.New(logPath, cfg.Log.Level)
	if err != nil {
		// Logging is best-effort; a read-only home directory should not
		// keep the client from starting.
		fmt.Fprintf(os.Stderr, "chatmc: logging disabled: %v\n", err)
		log = logging.Nop()
	}
	log.Infof("chatmc %s starting, backend %s", Version, cfg.ServerURL)

	statePath, err := cfg.StatePath()
	if err != nil {
		return err
	}
	store, err := statestore.Open(statePath)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	client := api.NewClient(cfg.ServerURL).WithTimeout(cfg.RequestTimeout())
	session := auth.NewSession(client, store, log)
	client.WithTokenSource(session.Token)

	ctx := context.Background()
	session.Init(ctx)

	coord := coordinator.New(client, session,
		directory.New(client, log),
		transcript.New(),
		log)

	theme := styles.NewTheme(cfg.UI.Theme)
	root := chat.New(ctx, coord, theme, cfg.UI, log)

	program := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	log.Infof("chatmc exiting")
	return nil
}
