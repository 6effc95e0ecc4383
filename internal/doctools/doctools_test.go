package doctools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/watcher"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("result content is not text: %#v", res.Content[0])
	}
	return text.Text
}

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	ix := index.New()
	elements := []docmodel.DocElement{
		{
			ID: "C:Parser", Kind: docmodel.KindComponent, Title: "Markdown Parser",
			File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "markdown-parser",
			BodyMarkdown: "Feeds C:Indexer.", Refs: []string{"C:Indexer"},
		},
		{
			ID: "C:Indexer", Kind: docmodel.KindComponent, Title: "Element Indexer",
			File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "element-indexer",
		},
	}
	for _, spec := range elements {
		e, err := docmodel.New(spec)
		if err != nil {
			t.Fatal(err)
		}
		if err := ix.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	return ix
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// --- doc_search ---

func TestSearchTool(t *testing.T) {
	tool := NewSearchTool(testIndex(t), testMetrics())

	res, err := tool.Handle(context.Background(), callRequest("doc_search", map[string]any{
		"query": "C:Parser",
	}))
	if err != nil {
		t.Fatal(err)
	}

	var payload struct {
		Total   int `json:"total"`
		Matches []struct {
			ElementID string  `json:"element_id"`
			Score     float64 `json:"match_score"`
		} `json:"matches"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Total == 0 || payload.Matches[0].ElementID != "C:Parser" || payload.Matches[0].Score != 1.0 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSearchTool_MissingQuery(t *testing.T) {
	tool := NewSearchTool(testIndex(t), testMetrics())
	res, err := tool.Handle(context.Background(), callRequest("doc_search", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("want error result for missing query")
	}
}

// --- doc_get ---

func TestGetTool(t *testing.T) {
	tool := NewGetTool(testIndex(t), testMetrics())

	res, err := tool.Handle(context.Background(), callRequest("doc_get", map[string]any{
		"id": "C:Parser",
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, `"C:Parser"`) || !strings.Contains(text, "Markdown Parser") {
		t.Errorf("result = %s", text)
	}

	res, err = tool.Handle(context.Background(), callRequest("doc_get", map[string]any{
		"id": "C:Nope",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("want error result for unknown id")
	}
}

// --- doc_backlinks ---

func TestBacklinksTool(t *testing.T) {
	tool := NewBacklinksTool(testIndex(t), testMetrics())

	res, err := tool.Handle(context.Background(), callRequest("doc_backlinks", map[string]any{
		"id": "C:Indexer",
	}))
	if err != nil {
		t.Fatal(err)
	}

	var payload struct {
		References []string `json:"references"`
		Backlinks  []string `json:"backlinks"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Backlinks) != 1 || payload.Backlinks[0] != "C:Parser" {
		t.Errorf("payload = %+v", payload)
	}
}

// --- doc_validate / doc_cycles ---

func TestValidateTool_CleanGraph(t *testing.T) {
	tool := NewValidateTool(testIndex(t), testMetrics())
	res, err := tool.Handle(context.Background(), callRequest("doc_validate", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), `"clean": true`) {
		t.Errorf("result = %s", resultText(t, res))
	}
}

func TestCyclesTool(t *testing.T) {
	ix := index.New()
	pair := []docmodel.DocElement{
		{
			ID: "C:Alpha", Kind: docmodel.KindComponent, Title: "Alpha",
			File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "alpha",
			Refs: []string{"C:Beta"},
		},
		{
			ID: "C:Beta", Kind: docmodel.KindComponent, Title: "Beta",
			File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "beta",
			Refs: []string{"C:Alpha"},
		},
	}
	for _, spec := range pair {
		e, err := docmodel.New(spec)
		if err != nil {
			t.Fatal(err)
		}
		if err := ix.Add(e); err != nil {
			t.Fatal(err)
		}
	}

	tool := NewCyclesTool(ix, testMetrics())
	res, err := tool.Handle(context.Background(), callRequest("doc_cycles", nil))
	if err != nil {
		t.Fatal(err)
	}

	var payload struct {
		Total  int        `json:"total"`
		Cycles [][]string `json:"cycles"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Total != 1 {
		t.Errorf("payload = %+v", payload)
	}
}

// --- doc_update ---

func TestUpdateTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "software-design.md")
	doc := "# C:Parser - Markdown Parser\n\nOld body.\n\n# C:Indexer - Element Indexer\n\nKept body.\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := index.New()
	reindexer := watcher.NewReindexer(ix, zerolog.Nop(), testMetrics())
	if err := reindexer.IndexFile(path); err != nil {
		t.Fatal(err)
	}

	resolve := func(docmodel.SourceFile) string { return path }
	tool := NewUpdateTool(ix, resolve, reindexer, testMetrics())

	res, err := tool.Handle(context.Background(), callRequest("doc_update", map[string]any{
		"id":      "C:Parser",
		"content": "\nNew body referencing C:Indexer.\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "-Old body.") || !strings.Contains(text, "+New body referencing C:Indexer.") {
		t.Errorf("diff missing from result: %s", text)
	}

	// File rewritten with the other section intact.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Kept body.") {
		t.Errorf("other section lost:\n%s", data)
	}

	// Index refreshed: the new body's reference is live.
	if got := ix.Backlinks("C:Indexer"); len(got) != 1 || got[0] != "C:Parser" {
		t.Errorf("Backlinks = %v", got)
	}
	if !strings.Contains(ix.Get("C:Parser").BodyMarkdown, "New body") {
		t.Errorf("body not reindexed: %q", ix.Get("C:Parser").BodyMarkdown)
	}
}

func TestUpdateTool_UnknownID(t *testing.T) {
	tool := NewUpdateTool(index.New(), func(docmodel.SourceFile) string { return "" }, nil, testMetrics())
	res, err := tool.Handle(context.Background(), callRequest("doc_update", map[string]any{
		"id":      "C:Ghost",
		"content": "x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("want error result for unknown element")
	}
}
