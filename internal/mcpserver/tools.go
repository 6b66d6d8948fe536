package mcpserver

import (
	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolForCommand returns the MCP tool definition for a mutation command.
func toolForCommand(cmd handlers.Command) (mcp.Tool, bool) {
	switch cmd {
	case handlers.CommandBatchCreate:
		return mcp.NewTool(string(handlers.CommandBatchCreate),
			mcp.WithDescription(
				"Create a set of entities and relationships in one project as an "+
					"all-or-nothing batch (at most 100 entities and 500 relationships). "+
					"Entities may carry a batch-local 'ref' token; relationship 'from'/'to' "+
					"values are resolved against batch refs first, then against existing "+
					"entity ids. Any unresolved reference aborts the whole batch.",
			),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("Project namespace the batch belongs to"),
			),
			mcp.WithArray("entities",
				mcp.Description("Entity specs: {name, type, description?, properties?, ref?}"),
				mcp.Items(map[string]any{"type": "object"}),
			),
			mcp.WithArray("relationships",
				mcp.Description("Relationship specs: {from, to, type, properties?}"),
				mcp.Items(map[string]any{"type": "object"}),
			),
		), true

	case handlers.CommandUpsert:
		return mcp.NewTool(string(handlers.CommandUpsert),
			mcp.WithDescription(
				"Create or update one entity matched case-insensitively by "+
					"(project, type, name). On update, a non-empty description replaces "+
					"the existing one and properties merge with new values winning. "+
					"Returns the entity id and whether the call created it.",
			),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("Project namespace"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Entity display name"),
			),
			mcp.WithString("type",
				mcp.Required(),
				mcp.Description("Entity category, e.g. 'Component' or 'Concept'"),
			),
			mcp.WithString("description",
				mcp.Description("Optional free-text description"),
			),
			mcp.WithObject("properties",
				mcp.Description("Optional key/value properties to merge in"),
			),
		), true

	case handlers.CommandDeduplicate:
		return mcp.NewTool(string(handlers.CommandDeduplicate),
			mcp.WithDescription(
				"Find groups of entities sharing (project, type, normalized name), "+
					"merge each group into the oldest member, re-point relationships off "+
					"the duplicates, and delete them. Defaults to a dry-run report; pass "+
					"dryRun=false to apply.",
			),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("Project namespace"),
			),
			mcp.WithString("type",
				mcp.Description("Optional entity type filter"),
			),
			mcp.WithBoolean("dryRun",
				mcp.DefaultBool(true),
				mcp.Description("Report the merge plan without writing (default true)"),
			),
		), true

	case handlers.CommandBatchDelete:
		return mcp.NewTool(string(handlers.CommandBatchDelete),
			mcp.WithDescription(
				"Delete entities by id, cascading deletion of every relationship "+
					"incident to them. All targets are verified to exist before the "+
					"first write.",
			),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("Project namespace"),
			),
			mcp.WithArray("entityIds",
				mcp.Required(),
				mcp.Description("Identifiers of the entities to delete"),
				mcp.Items(map[string]any{"type": "string"}),
			),
		), true
	}

	return mcp.Tool{}, false
}
