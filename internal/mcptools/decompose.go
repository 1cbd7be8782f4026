package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// SuggestionsTool handles decompose_suggestions.
type SuggestionsTool struct {
	ws *workspace.Workspace
}

func NewSuggestionsTool(ws *workspace.Workspace) *SuggestionsTool {
	return &SuggestionsTool{ws: ws}
}

func (t *SuggestionsTool) Definition() mcp.Tool {
	return mcp.NewTool("decompose_suggestions",
		mcp.WithDescription(
			"List shared affixes of the working grammar with the lexical item indices whose "+
				"similarity clears mean + 1 standard deviation. The result is cached for `decompose`.",
		),
	)
}

func (t *SuggestionsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sugg map[string][]int
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		sugg = s.Suggestions()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sugg)
}

// DecomposeTool handles decompose.
type DecomposeTool struct {
	ws *workspace.Workspace
}

func NewDecomposeTool(ws *workspace.Workspace) *DecomposeTool {
	return &DecomposeTool{ws: ws}
}

func (t *DecomposeTool) Definition() mcp.Tool {
	return mcp.NewTool("decompose",
		mcp.WithDescription(
			"Factor an affix out of lexical items and rebuild the graph. Without `indices` the "+
				"items last suggested for the affix are used.",
		),
		mcp.WithString("affix",
			mcp.Required(),
			mcp.Description("Prefix ending in '-' (`be-`) or suffix starting with '-' (`-s`)"),
		),
		mcp.WithNumber("split",
			mcp.Required(),
			mcp.Description("Feature index where each bundle is split; the tail moves to the affix item"),
		),
		mcp.WithArray("indices",
			mcp.Description("Lexical item indices to decompose"),
			mcp.Items(map[string]any{"type": "number"}),
		),
	)
}

func (t *DecomposeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	affix := req.GetString("affix", "")
	if affix == "" {
		return mcp.NewToolResultError("affix is required"), nil
	}
	split := intArg(req, "split", -1)
	indices, err := intsArg(req, "indices")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		report *diag.Report
		text   string
	)
	err = t.ws.With(ctx, func(s *workspace.Session) error {
		var err error
		report, err = s.Decompose(ctx, affix, split, indices)
		text = s.Text()
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decompose failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Decomposed `%s`\n\n```\n%s```\n", affix, text)
	writeReport(&sb, report)
	return mcp.NewToolResultText(sb.String()), nil
}
