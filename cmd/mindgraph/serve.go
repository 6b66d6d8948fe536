package main

import (
	"fmt"

	"github.com/calder-ai/mindgraph/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over stdio",
		Long: `Run the knowledge-graph mutation tools as an MCP server over stdio.

The server exposes graph_batch_create, graph_upsert, graph_deduplicate and
graph_batch_delete. Each tool call names its project explicitly; there is no
ambient default project.

Examples:
  mindgraph serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	return withDeps(func(deps *Deps) error {
		mcpserver.Version = version
		s, err := mcpserver.New(deps.Dispatcher)
		if err != nil {
			return fmt.Errorf("building MCP server: %w", err)
		}
		return mcpserver.ServeStdio(s)
	})
}
