package doctools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// GetTool handles the doc_get MCP tool: full element lookup by ID.
type GetTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewGetTool creates a GetTool over the given index.
func NewGetTool(ix *index.Index, m *metrics.Metrics) *GetTool {
	return &GetTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_get",
		mcp.WithDescription(
			"Get one document element by its exact ID, including its body "+
				"markdown, references, and backlinks.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Element ID, e.g. C:Parser or T:0001."),
		),
	)
}

// Handle processes the doc_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		countCall(t.metrics, "doc_get", "error")
		return mcp.NewToolResultError("id is required"), nil
	}

	e := t.index.Get(id)
	if e == nil {
		countCall(t.metrics, "doc_get", "error")
		return mcp.NewToolResultError(fmt.Sprintf("element %q not found", id)), nil
	}
	countCall(t.metrics, "doc_get", "ok")
	return jsonResult(e)
}
