package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEntitiesCmd() *cobra.Command {
	var entityType string

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List entities in a project",
		Long: `List all entities in a project, optionally filtered by type.

Examples:
  mindgraph entities --project docs
  mindgraph entities --project docs --type Component`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(cmd, entityType)
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "", "Only list entities of this type")

	return cmd
}

func runEntities(cmd *cobra.Command, entityType string) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	return withDeps(func(deps *Deps) error {
		result, err := deps.Store.ListEntities(ctx, project, entityType)
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}

		if len(result) == 0 {
			fmt.Println("No entities found.")
			return nil
		}

		fmt.Printf("Entities (%d total):\n\n", len(result))
		for i := range result {
			fmt.Printf("  %s  %-12s %s\n", result[i].ID, result[i].Type, result[i].Name)
		}
		return nil
	})
}
