package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/mggraph/api"
	"github.com/agentic-research/mggraph/internal/collection"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// CollectionSaveTool handles collection_save.
type CollectionSaveTool struct {
	ws   *workspace.Workspace
	coll *collection.Store
}

func NewCollectionSaveTool(ws *workspace.Workspace, coll *collection.Store) *CollectionSaveTool {
	return &CollectionSaveTool{ws: ws, coll: coll}
}

func (t *CollectionSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("collection_save",
		mcp.WithDescription("Save the working grammar to the example collection under a title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Example title; an existing one is replaced")),
		mcp.WithString("lang", mcp.Description("Language of the example, e.g. `en`")),
	)
}

func (t *CollectionSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	lang := req.GetString("lang", "")
	var ex api.Example
	err := t.ws.With(ctx, func(s *workspace.Session) error {
		ex = collection.FromGrammar(title, lang, s.Grammar())
		return t.coll.Save(ex)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %q (%d lexical items).", ex.Title, len(ex.Grammar))), nil
}

// CollectionListTool handles collection_list.
type CollectionListTool struct {
	coll *collection.Store
}

func NewCollectionListTool(coll *collection.Store) *CollectionListTool {
	return &CollectionListTool{coll: coll}
}

func (t *CollectionListTool) Definition() mcp.Tool {
	return mcp.NewTool("collection_list",
		mcp.WithDescription("List the saved example grammars."),
	)
}

func (t *CollectionListTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := t.coll.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(all)
}
