package doctools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// ValidateTool handles the doc_validate MCP tool: reference-graph
// audit.
type ValidateTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewValidateTool creates a ValidateTool over the given index.
func NewValidateTool(ix *index.Index, m *metrics.Metrics) *ValidateTool {
	return &ValidateTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_validate",
		mcp.WithDescription(
			"Audit the reference graph: broken references (edges to IDs that "+
				"are not indexed) and internal backlink inconsistencies. "+
				"Problems are reported as data, never as tool errors.",
		),
	)
}

// Handle processes the doc_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := t.index.ValidateReferences()
	countCall(t.metrics, "doc_validate", "ok")
	return jsonResult(map[string]any{
		"broken_references": report.BrokenReferences,
		"missing_backlinks": report.MissingBacklinks,
		"clean":             len(report.BrokenReferences) == 0 && len(report.MissingBacklinks) == 0,
	})
}
