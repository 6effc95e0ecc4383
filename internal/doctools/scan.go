package doctools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/workspace"
)

// ScanTool handles the workspace_scan MCP tool: workspace discovery
// and validation.
type ScanTool struct {
	root    string
	metrics *metrics.Metrics
}

// NewScanTool creates a ScanTool with a default workspace root.
func NewScanTool(root string, m *metrics.Metrics) *ScanTool {
	return &ScanTool{root: root, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *ScanTool) Definition() mcp.Tool {
	return mcp.NewTool("workspace_scan",
		mcp.WithDescription(
			"Scan a workspace root for project directories and validate their "+
				"structure: required artifact files, conventions.md, naming, "+
				"and per-project issues.",
		),
		mcp.WithString("workspace",
			mcp.Description("Workspace root path. Defaults to the served workspace."),
		),
	)
}

// Handle processes the workspace_scan tool call.
func (t *ScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root := req.GetString("workspace", t.root)

	discovery, err := workspace.NewDiscovery(root)
	if err != nil {
		countCall(t.metrics, "workspace_scan", "error")
		return mcp.NewToolResultError(fmt.Sprintf("workspace discovery: %v", err)), nil
	}
	ws, err := discovery.Discover()
	if err != nil {
		countCall(t.metrics, "workspace_scan", "error")
		return mcp.NewToolResultError(fmt.Sprintf("workspace discovery: %v", err)), nil
	}

	countCall(t.metrics, "workspace_scan", "ok")
	return jsonResult(map[string]any{
		"workspace":  ws,
		"statistics": workspace.Summarize(ws),
	})
}
