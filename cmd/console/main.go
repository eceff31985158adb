package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/internal/config"
	"github.com/jwebster45206/story-editor/internal/logger"
	"github.com/jwebster45206/story-editor/internal/storage"
	"github.com/jwebster45206/story-editor/pkg/editor"
)

func main() {
	sessionFlag := flag.String("session", "", "resume the drafts of an earlier session id")
	logFile := flag.String("log", "story-editor.log", "file that receives the log while the console runs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = f.Close()
	}()
	log := logger.SetupWriter(cfg, f)

	var sessionID uuid.UUID
	if *sessionFlag != "" {
		sessionID, err = uuid.Parse(*sessionFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid session id %q: %v\n", *sessionFlag, err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tables, err := storage.OpenTables(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open content store: %v\n", err)
		os.Exit(1)
	}
	drafts, err := storage.OpenDrafts(ctx, cfg, log)
	if err != nil {
		// Drafts are optional; the editor still works without them.
		log.Warn("Draft store unavailable", "error", err)
		drafts = nil
	}

	session, err := editor.New(editor.Options{
		ID:     sessionID,
		Tables: tables,
		Drafts: drafts,
		Logger: log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Error("Failed to close session", "error", err)
		}
	}()

	if err := session.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load content: %v\n", err)
		os.Exit(1)
	}
	if sessionID != uuid.Nil {
		recovered, err := session.RecoverDrafts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to recover drafts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recovered %d draft table(s)\n", len(recovered))
	}

	fmt.Printf("Session %s\n", session.ID)

	p := tea.NewProgram(NewEditorUI(session),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
