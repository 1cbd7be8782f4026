package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/ingest"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// BuildTool handles grammar_build.
type BuildTool struct {
	ws *workspace.Workspace
}

func NewBuildTool(ws *workspace.Workspace) *BuildTool {
	return &BuildTool{ws: ws}
}

func (t *BuildTool) Definition() mcp.Tool {
	return mcp.NewTool("grammar_build",
		mcp.WithDescription(
			"Parse a Minimalist Grammar (`phon :: f1 f2;` statements), replace the working grammar "+
				"with it and rebuild the derivation graph.",
		),
		mcp.WithString("grammar",
			mcp.Required(),
			mcp.Description("Grammar text, e.g. `Mary :: d -k; laughs :: =d +k t;`"),
		),
	)
}

func (t *BuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("grammar", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("grammar is required"), nil
	}

	var (
		report *diag.Report
		items  int
		states int
	)
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		var err error
		report, err = s.Load(ctx, text)
		items, states = s.Grammar().Len(), s.Grammar().States()
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Grammar built\n\n")
	fmt.Fprintf(&sb, "- **Lexical items**: %d\n", items)
	fmt.Fprintf(&sb, "- **States**: %d\n", states)
	writeReport(&sb, report)
	return mcp.NewToolResultText(sb.String()), nil
}

// ShowTool handles grammar_show.
type ShowTool struct {
	ws *workspace.Workspace
}

func NewShowTool(ws *workspace.Workspace) *ShowTool {
	return &ShowTool{ws: ws}
}

func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("grammar_show",
		mcp.WithDescription("Show the working grammar as text or as its JSON interchange document."),
		mcp.WithString("format",
			mcp.Description("`text` (default) or `json`"),
			mcp.Enum("text", "json"),
		),
	)
}

func (t *ShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := req.GetString("format", "text")
	var result *mcp.CallToolResult
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		if format == "json" {
			var err error
			result, err = jsonResult(s.Document())
			return err
		}
		result = mcp.NewToolResultText(s.Text())
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return result, nil
}

// QueryTool handles grammar_query.
type QueryTool struct {
	ws *workspace.Workspace
}

func NewQueryTool(ws *workspace.Workspace) *QueryTool {
	return &QueryTool{ws: ws}
}

func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("grammar_query",
		mcp.WithDescription(
			"Evaluate a JSONPath expression against the working grammar's interchange document "+
				"(`{items: [{morph, bundle: [{raw, id, rel}]}]}`).",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("JSONPath, e.g. `$.items[*].morph`"),
		),
	)
}

func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	var matches []any
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		var err error
		matches, err = ingest.Select(s.Grammar(), path)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if matches == nil {
		matches = []any{}
	}
	return jsonResult(matches)
}
