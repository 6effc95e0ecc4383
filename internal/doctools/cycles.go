package doctools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// CyclesTool handles the doc_cycles MCP tool: circular-reference
// detection.
type CyclesTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewCyclesTool creates a CyclesTool over the given index.
func NewCyclesTool(ix *index.Index, m *metrics.Metrics) *CyclesTool {
	return &CyclesTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *CyclesTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_cycles",
		mcp.WithDescription(
			"Find circular reference chains in the document graph. Each cycle "+
				"is reported as the ID path from the first repeated element "+
				"back to itself.",
		),
	)
}

// Handle processes the doc_cycles tool call.
func (t *CyclesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles := t.index.FindCircularReferences()
	countCall(t.metrics, "doc_cycles", "ok")
	return jsonResult(map[string]any{
		"total":  len(cycles),
		"cycles": cycles,
	})
}
