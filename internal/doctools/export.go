package doctools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/snapshot"
)

// ExportTool handles the graph_export MCP tool: full reference-graph
// export, optionally persisted as a snapshot.
type ExportTool struct {
	index     *index.Index
	snapshots *snapshot.Store
	metrics   *metrics.Metrics
}

// NewExportTool creates an ExportTool. The snapshot store may be nil;
// save requests then fail gracefully.
func NewExportTool(ix *index.Index, snapshots *snapshot.Store, m *metrics.Metrics) *ExportTool {
	return &ExportTool{index: ix, snapshots: snapshots, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("graph_export",
		mcp.WithDescription(
			"Export the whole reference graph: element summaries, forward "+
				"references, backlinks, and statistics. With save=true the "+
				"export is also persisted as a snapshot.",
		),
		mcp.WithBoolean("save",
			mcp.Description("Persist the export to the snapshot store (default false)."),
		),
	)
}

// Handle processes the graph_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	export := t.index.ExportReferenceGraph()

	var snapshotID int64
	if boolArg(req, "save", false) {
		if t.snapshots == nil {
			countCall(t.metrics, "graph_export", "error")
			return mcp.NewToolResultError("snapshot store is not configured"), nil
		}
		id, err := t.snapshots.Save(export, t.index.All())
		if err != nil {
			countCall(t.metrics, "graph_export", "error")
			return mcp.NewToolResultError(fmt.Sprintf("saving snapshot: %v", err)), nil
		}
		snapshotID = id
	}

	countCall(t.metrics, "graph_export", "ok")
	result := map[string]any{"graph": export}
	if snapshotID != 0 {
		result["snapshot_id"] = snapshotID
	}
	return jsonResult(result)
}
