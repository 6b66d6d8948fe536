package main

import (
	"fmt"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity-id> [entity-id...]",
		Short: "Delete entities and their relationships",
		Long: `Delete entities by id, cascading deletion of every relationship incident
to them. All targets are verified to exist before anything is removed.

Examples:
  mindgraph delete 7c9e6679-... --project docs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args)
		},
	}
}

func runDelete(cmd *cobra.Command, entityIDs []string) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	req := &handlers.BatchDeleteRequest{
		Project:   project,
		EntityIDs: entityIDs,
	}

	return withDeps(func(deps *Deps) error {
		result, err := deps.Handler.HandleBatchDelete(ctx, req)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d entities.\n", len(result.DeletedIDs))
		return nil
	})
}
