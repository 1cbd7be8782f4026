package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/mggraph/internal/mdl"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// Default endpoints of a pathway query: from a determiner phrase to a tensed
// clause.
const (
	DefaultFrom = "d"
	DefaultTo   = "t"
)

// SizeTool handles grammar_size.
type SizeTool struct {
	ws *workspace.Workspace
}

func NewSizeTool(ws *workspace.Workspace) *SizeTool {
	return &SizeTool{ws: ws}
}

func (t *SizeTool) Definition() mcp.Tool {
	return mcp.NewTool("grammar_size",
		mcp.WithDescription("Minimum description length of the working grammar, in bits."),
	)
}

func (t *SizeTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var r mdl.Result
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		r = s.Size()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

// PathwaysTool handles pathways.
type PathwaysTool struct {
	ws *workspace.Workspace
}

func NewPathwaysTool(ws *workspace.Workspace) *PathwaysTool {
	return &PathwaysTool{ws: ws}
}

func (t *PathwaysTool) Definition() mcp.Tool {
	return mcp.NewTool("pathways",
		mcp.WithDescription(
			"All simple paths and all shortest paths between two states of the derivation graph, "+
				"as lexical items joined by ` => `.",
		),
		mcp.WithString("from", mcp.Description("Start state (default `d`)")),
		mcp.WithString("to", mcp.Description("End state (default `t`)")),
	)
}

func (t *PathwaysTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from", DefaultFrom)
	to := req.GetString("to", DefaultTo)
	var p workspace.Pathways
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		var err error
		p, err = s.Pathways(ctx, from, to)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.All == nil {
		p.All = []string{}
	}
	if p.Shortest == nil {
		p.Shortest = []string{}
	}
	return jsonResult(p)
}
