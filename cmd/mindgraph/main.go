// Package main provides the entry point for the mindgraph CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalProject string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "mindgraph",
		Short:   "A project-scoped knowledge graph with atomic batch mutation and deduplication",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalProject, "project", "p", "", "Project to operate on (required)")

	rootCmd.AddCommand(
		newServeCmd(),
		newBatchCmd(),
		newUpsertCmd(),
		newDedupeCmd(),
		newDeleteCmd(),
		newEntitiesCmd(),
		newAuditCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
