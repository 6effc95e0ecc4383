package doctools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// StatsTool handles the doc_stats MCP tool: index statistics.
type StatsTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewStatsTool creates a StatsTool over the given index.
func NewStatsTool(ix *index.Index, m *metrics.Metrics) *StatsTool {
	return &StatsTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_stats",
		mcp.WithDescription(
			"Current index statistics: element counts by kind and file, "+
				"reference and backlink totals, orphaned references, and the "+
				"last update time.",
		),
	)
}

// Handle processes the doc_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	countCall(t.metrics, "doc_stats", "ok")
	return jsonResult(t.index.GetStatistics())
}
