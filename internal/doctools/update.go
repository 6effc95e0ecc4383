package doctools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdex/specdex/internal/body"
	"github.com/specdex/specdex/internal/diffutil"
	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/ident"
	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/watcher"
)

// PathResolver maps a source-file classification to its on-disk path.
type PathResolver func(docmodel.SourceFile) string

// UpdateTool handles the doc_update MCP tool: replace one element's
// body in its markdown file and reindex. Everything outside the body
// is preserved byte for byte; the response carries a unified diff of
// the file change.
type UpdateTool struct {
	index     *index.Index
	resolve   PathResolver
	reindexer *watcher.Reindexer
	metrics   *metrics.Metrics
}

// NewUpdateTool creates an UpdateTool. The reindexer keeps the index
// in sync with the written file without waiting for the next watcher
// poll.
func NewUpdateTool(ix *index.Index, resolve PathResolver, r *watcher.Reindexer, m *metrics.Metrics) *UpdateTool {
	return &UpdateTool{index: ix, resolve: resolve, reindexer: r, metrics: m}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("doc_update",
		mcp.WithDescription(
			"Replace the body content of one element in its markdown file. "+
				"The heading and all other sections are preserved exactly. "+
				"Returns a unified diff of the file change.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Element ID whose body to replace, e.g. C:Parser."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New body markdown. An empty string clears the body."),
		),
	)
}

// Handle processes the doc_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		countCall(t.metrics, "doc_update", "error")
		return mcp.NewToolResultError("id is required"), nil
	}
	content, ok := req.GetArguments()["content"].(string)
	if !ok {
		countCall(t.metrics, "doc_update", "error")
		return mcp.NewToolResultError("content is required"), nil
	}

	e := t.index.Get(id)
	if e == nil {
		countCall(t.metrics, "doc_update", "error")
		return mcp.NewToolResultError(fmt.Sprintf("element %q not found", id)), nil
	}

	path := t.resolve(e.File)
	data, err := os.ReadFile(path)
	if err != nil {
		countCall(t.metrics, "doc_update", "error")
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	markdown := string(data)

	line, err := headingLineFor(markdown, id)
	if err != nil {
		countCall(t.metrics, "doc_update", "error")
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := body.NewExtractor().Update(markdown, line, content)
	if err != nil {
		countCall(t.metrics, "doc_update", "error")
		return nil, fmt.Errorf("splicing body for %s: %w", id, err)
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		countCall(t.metrics, "doc_update", "error")
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	if t.reindexer != nil {
		if err := t.reindexer.IndexFile(path); err != nil {
			countCall(t.metrics, "doc_update", "error")
			return nil, fmt.Errorf("reindexing %s: %w", path, err)
		}
	}

	countCall(t.metrics, "doc_update", "ok")
	return jsonResult(map[string]any{
		"id":   id,
		"file": filepath.Base(path),
		"diff": diffutil.Unified(filepath.Base(path), markdown, updated),
	})
}

// headingLineFor finds the 0-based line of the heading whose extracted
// ID matches.
func headingLineFor(markdown, id string) (int, error) {
	for _, s := range body.ExtractAll(markdown) {
		if match, ok := ident.MatchHeading(s.Heading.HeadingText); ok && match.FullID == id {
			return s.Heading.LineNumber, nil
		}
	}
	return 0, fmt.Errorf("no heading with ID %s in file", id)
}
