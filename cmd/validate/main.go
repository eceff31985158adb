package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jwebster45206/story-editor/internal/config"
	"github.com/jwebster45206/story-editor/internal/storage"
	"github.com/jwebster45206/story-editor/pkg/editor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	switch len(os.Args) {
	case 1:
	case 2:
		// An explicit directory always means the file backend.
		cfg.StorageBackend = config.BackendFile
		cfg.DataDir = os.Args[1]
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [content-dir]\n", os.Args[0])
		os.Exit(1)
	}

	validator := &ContentValidator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := validator.validate(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Content is valid!")
}

type ContentValidator struct {
	logger *slog.Logger
	errors []string
}

func (v *ContentValidator) validate(ctx context.Context, cfg *config.Config) error {
	source := cfg.DataDir
	if cfg.StorageBackend == config.BackendSQLite {
		source = cfg.SQLitePath
	}
	fmt.Printf("Validating %s...\n", source)

	tables, err := storage.OpenTables(cfg, v.logger)
	if err != nil {
		return err
	}
	if err := tables.Ping(ctx); err != nil {
		_ = tables.Close()
		return fmt.Errorf("content source %s is not readable: %w", source, err)
	}

	session, err := editor.New(editor.Options{Tables: tables, Logger: v.logger})
	if err != nil {
		_ = tables.Close()
		return err
	}
	defer func() {
		_ = session.Close()
	}()

	if err := session.Load(ctx); err != nil {
		return err
	}

	v.errors = nil
	report := session.Validate()
	for _, line := range report.Lines() {
		v.addError(line)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("%s in %s:\n%s", report.Summary(), source, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
