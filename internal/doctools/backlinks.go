package doctools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// BacklinksTool handles the doc_backlinks MCP tool: both edge
// directions for one element.
type BacklinksTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewBacklinksTool creates a BacklinksTool over the given index.
func NewBacklinksTool(ix *index.Index, m *metrics.Metrics) *BacklinksTool {
	return &BacklinksTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *BacklinksTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_backlinks",
		mcp.WithDescription(
			"List the reference edges of one element: the IDs it references "+
				"and the IDs that reference it.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Element ID, e.g. C:Parser."),
		),
	)
}

// Handle processes the doc_backlinks tool call.
func (t *BacklinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		countCall(t.metrics, "doc_backlinks", "error")
		return mcp.NewToolResultError("id is required"), nil
	}
	if !t.index.Has(id) {
		countCall(t.metrics, "doc_backlinks", "error")
		return mcp.NewToolResultError(fmt.Sprintf("element %q not found", id)), nil
	}

	countCall(t.metrics, "doc_backlinks", "ok")
	return jsonResult(map[string]any{
		"id":         id,
		"references": t.index.References(id),
		"backlinks":  t.index.Backlinks(id),
	})
}
