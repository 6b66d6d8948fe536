// Package mcpserver exposes the graph mutation operations as MCP tools.
//
// This is the composition boundary between transport framing and the mutation
// core: each tool decodes its arguments into a raw payload and hands it to the
// dispatcher, which owns request construction and validation.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates an MCP server with one tool registered per mutation command.
func New(dispatcher *handlers.Dispatcher) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"mindgraph",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(
			"Knowledge-graph mutation tools. Entities and relationships are "+
				"scoped to a project; every tool call names its project explicitly. "+
				"Batch creation is all-or-nothing, and deduplication defaults to a "+
				"dry-run report.",
		),
	)

	for _, cmd := range dispatcher.Commands() {
		tool, ok := toolForCommand(cmd)
		if !ok {
			return nil, fmt.Errorf("no tool definition for command %q", cmd)
		}
		s.AddTool(tool, toolHandler(dispatcher, cmd))
	}

	return s, nil
}

// ServeStdio runs the server over stdio until the client disconnects.
// Diagnostics must go to stderr; stdout carries the protocol.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// toolHandler adapts one dispatcher command to the mcp-go handler signature.
// Domain failures (validation, unresolved refs, conflicts, missing entities)
// are tool results the model can react to, not protocol errors.
func toolHandler(dispatcher *handlers.Dispatcher, cmd handlers.Command) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return nil, fmt.Errorf("encoding arguments: %w", err)
		}

		result, err := dispatcher.Dispatch(ctx, cmd, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding result: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
