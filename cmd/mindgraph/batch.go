package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Atomically create entities and relationships from a JSON file",
		Long: `Create a batch of entities and relationships in one project.

The file holds {"entities": [...], "relationships": [...]} using the same
shapes as the graph_batch_create tool. Pass "-" to read from stdin. The batch
either commits completely or not at all.

Examples:
  mindgraph batch seed.json --project docs
  cat seed.json | mindgraph batch - --project docs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}

	return cmd
}

func runBatch(cmd *cobra.Command, file string) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	var data []byte
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("reading batch file: %w", err)
	}

	var req handlers.BatchCreateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parsing batch file: %w", err)
	}
	req.Project = project

	return withDeps(func(deps *Deps) error {
		result, err := deps.Handler.HandleBatchCreate(ctx, &req)
		if err != nil {
			return err
		}

		fmt.Printf("Created %d entities and %d relationships.\n", len(result.EntityIDs), len(result.RelationshipIDs))
		return printJSON(result)
	})
}

// printJSON writes a result as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
