// Package mcptools exposes the workspace as MCP tools.
//
// Each tool follows the same shape:
//   - a struct holding the workspace (and collection, where needed)
//   - Definition() returns the mcp.Tool schema
//   - Handle() runs the request inside Workspace.With and renders a result
//
// Domain failures are returned as tool errors, never as Go errors, so the
// client sees the message.
package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/mggraph/internal/diag"
)

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// intsArg extracts an array of integers. Non-numeric entries are an error.
func intsArg(req mcp.CallToolRequest, key string) ([]int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of numbers", key)
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of numbers", key)
		}
		out = append(out, int(f))
	}
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// writeReport appends a diagnostics section when the report is non-empty.
func writeReport(sb *strings.Builder, report *diag.Report) {
	if report == nil || report.Len() == 0 {
		return
	}
	sb.WriteString("\n## Diagnostics\n\n")
	for _, m := range report.Messages() {
		fmt.Fprintf(sb, "- %s\n", m)
	}
}
