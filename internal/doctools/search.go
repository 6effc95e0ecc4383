package doctools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

// SearchTool handles the doc_search MCP tool: ranked search over
// element IDs and titles.
type SearchTool struct {
	index   *index.Index
	metrics *metrics.Metrics
}

// NewSearchTool creates a SearchTool over the given index.
func NewSearchTool(ix *index.Index, m *metrics.Metrics) *SearchTool {
	return &SearchTool{index: ix, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_search",
		mcp.WithDescription(
			"Search document elements by ID or title. Exact ID matches rank "+
				"highest, then ID prefixes, exact titles, and title words. "+
				"Returns ranked matches with scores.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text: an element ID like C:Parser, an ID prefix, or title words."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)."),
		),
	)
}

// Handle processes the doc_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		countCall(t.metrics, "doc_search", "error")
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := intArg(req, "limit", 10)

	results := t.index.Search(query, limit)
	if t.metrics != nil {
		t.metrics.SearchQueriesTotal.Inc()
		t.metrics.SearchResultsTotal.Add(float64(len(results)))
	}
	countCall(t.metrics, "doc_search", "ok")

	return jsonResult(map[string]any{
		"query":   query,
		"total":   len(results),
		"matches": results,
	})
}
