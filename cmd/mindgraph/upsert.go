package main

import (
	"encoding/json"
	"fmt"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/spf13/cobra"
)

func newUpsertCmd() *cobra.Command {
	var entityType string
	var description string
	var propsJSON string

	cmd := &cobra.Command{
		Use:   "upsert <name>",
		Short: "Create or update an entity by identity",
		Long: `Create or update one entity matched case-insensitively by
(project, type, name). On update, properties merge with new values winning
and a non-empty description replaces the existing one.

Examples:
  mindgraph upsert "Auth Service" --type Component --project docs
  mindgraph upsert "Auth Service" --type Component --props '{"lang":"go"}' --project docs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpsert(cmd, args[0], entityType, description, propsJSON)
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "", "Entity type (required)")
	cmd.Flags().StringVar(&description, "description", "", "Entity description")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as a JSON object")

	return cmd
}

func runUpsert(cmd *cobra.Command, name, entityType, description, propsJSON string) error {
	ctx := cmd.Context()

	project, err := requireProject()
	if err != nil {
		return err
	}

	var props map[string]any
	if propsJSON != "" {
		if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
			return fmt.Errorf("parsing --props: %w", err)
		}
	}

	req := &handlers.UpsertRequest{
		Project:     project,
		Name:        name,
		Type:        entityType,
		Description: description,
		Properties:  props,
	}

	return withDeps(func(deps *Deps) error {
		result, err := deps.Handler.HandleUpsert(ctx, req)
		if err != nil {
			return err
		}

		if result.Created {
			fmt.Printf("Created entity %s\n", result.ID)
		} else {
			fmt.Printf("Updated entity %s\n", result.ID)
		}
		return nil
	})
}
