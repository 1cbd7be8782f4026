package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/mggraph/internal/collection"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// NewServer registers every tool on a new MCP server. Collection tools are
// only registered when coll is non-nil.
func NewServer(name, version string, ws *workspace.Workspace, coll *collection.Store) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	build := NewBuildTool(ws)
	s.AddTool(build.Definition(), build.Handle)

	show := NewShowTool(ws)
	s.AddTool(show.Definition(), show.Handle)

	query := NewQueryTool(ws)
	s.AddTool(query.Definition(), query.Handle)

	suggestions := NewSuggestionsTool(ws)
	s.AddTool(suggestions.Definition(), suggestions.Handle)

	decompose := NewDecomposeTool(ws)
	s.AddTool(decompose.Definition(), decompose.Handle)

	size := NewSizeTool(ws)
	s.AddTool(size.Definition(), size.Handle)

	pathways := NewPathwaysTool(ws)
	s.AddTool(pathways.Definition(), pathways.Handle)

	if coll != nil {
		save := NewCollectionSaveTool(ws, coll)
		s.AddTool(save.Definition(), save.Handle)

		list := NewCollectionListTool(coll)
		s.AddTool(list.Definition(), list.Handle)
	}
	return s
}
