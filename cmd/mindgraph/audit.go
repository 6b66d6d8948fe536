package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent mutation operations for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")

	return cmd
}

func runAudit(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	return withDeps(func(deps *Deps) error {
		entries, err := deps.Store.ListAuditLog(ctx, project, limit)
		if err != nil {
			return fmt.Errorf("listing audit log: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		for _, entry := range entries {
			fmt.Printf("  %s  %-14s %v\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action, entry.Details)
		}
		return nil
	})
}
