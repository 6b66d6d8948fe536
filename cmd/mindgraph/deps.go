package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
	"github.com/calder-ai/mindgraph/internal/domain/services"
	"github.com/calder-ai/mindgraph/internal/infrastructure/config"
	"github.com/calder-ai/mindgraph/internal/infrastructure/graphstore/sqlite"
)

// Deps holds high-level dependencies for commands. Only the handler layer is
// exposed - services and the store are wired internally.
type Deps struct {
	Config     *config.Config
	Store      ports.GraphStore
	Handler    *handlers.MutationHandler
	Dispatcher *handlers.Dispatcher
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating graph store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	locks := services.NewProjectLocker(cfg.Server.LockWait)
	handler := handlers.NewMutationHandler(
		services.NewBatchService(store, locks),
		services.NewUpsertService(store, locks),
		services.NewDedupeService(store, locks),
	)

	return fn(&Deps{
		Config:     cfg,
		Store:      store,
		Handler:    handler,
		Dispatcher: handlers.NewDispatcher(handler),
	})
}

// requireProject returns the --project flag value or an error when unset.
func requireProject() (string, error) {
	if globalProject == "" {
		return "", errors.New("project is required (use --project flag)")
	}
	return globalProject, nil
}
