package main

import (
	"fmt"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/spf13/cobra"
)

func newDedupeCmd() *cobra.Command {
	var entityType string
	var apply bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Merge entities sharing the same identity",
		Long: `Find groups of entities sharing (project, type, normalized name), merge
each group into its oldest member, re-point relationships off the duplicates
and delete them.

Without --apply this is a dry run: the merge plan is printed and nothing is
written.

Examples:
  mindgraph dedupe --project docs
  mindgraph dedupe --project docs --type Component --apply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(cmd, entityType, apply)
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "", "Only consider entities of this type")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the merge instead of reporting it")

	return cmd
}

func runDedupe(cmd *cobra.Command, entityType string, apply bool) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	dryRun := !apply
	req := &handlers.DeduplicateRequest{
		Project: project,
		Type:    entityType,
		DryRun:  &dryRun,
	}

	return withDeps(func(deps *Deps) error {
		result, err := deps.Handler.HandleDeduplicate(ctx, req)
		if err != nil {
			return err
		}

		if len(result.Groups) == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}

		mode := "Would merge"
		if apply {
			mode = "Merged"
		}
		for _, group := range result.Groups {
			fmt.Printf("%s %d duplicates into %s (%d relationships re-pointed, %d dropped)\n",
				mode,
				len(group.MergedLoserIDs),
				group.SurvivorID,
				len(group.RelationshipsRepointed),
				len(group.RelationshipsDropped),
			)
		}
		return printJSON(result)
	})
}
