// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it discovers the workspace, builds the
// index, starts the watcher, and injects the shared pieces into the
// tool handlers. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/doctools"
	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/snapshot"
	"github.com/specdex/specdex/internal/watcher"
	"github.com/specdex/specdex/internal/workspace"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config holds server configuration.
type Config struct {
	WorkspaceRoot string
	Project       string // project name; empty picks the first complete project
	PollInterval  time.Duration
	SnapshotDir   string // empty disables snapshot persistence
	Log           zerolog.Logger
	Metrics       *metrics.Metrics
}

// New creates and configures the MCP server: workspace discovery,
// initial indexing, file watching, and tool registration.
//
// The returned cleanup function stops the watcher and closes the
// snapshot store; call it on shutdown (typically via defer). It is
// always non-nil.
func New(cfg Config) (*server.MCPServer, func(), error) {
	discovery, err := workspace.NewDiscovery(cfg.WorkspaceRoot)
	if err != nil {
		return nil, noop, fmt.Errorf("workspace discovery: %w", err)
	}
	ws, err := discovery.Discover()
	if err != nil {
		return nil, noop, fmt.Errorf("scanning workspace: %w", err)
	}

	project, err := pickProject(ws, cfg.Project)
	if err != nil {
		return nil, noop, err
	}
	cfg.Log.Info().
		Str("workspace", ws.Path).
		Str("project", project.Name).
		Str("status", string(project.Status)).
		Msg("serving project")

	// --- Build the index ---

	ix := index.New()
	reindexer := watcher.NewReindexer(ix, cfg.Log, cfg.Metrics)

	paths := project.MarkdownPaths()
	if ws.Conventions.Exists {
		paths = append(paths, ws.Conventions.Path)
	}
	for _, path := range paths {
		if err := reindexer.IndexFile(path); err != nil {
			cfg.Log.Warn().Err(err).Str("path", path).Msg("initial indexing failed")
		}
	}
	cfg.Log.Info().Int("elements", ix.Len()).Int("references", ix.ReferenceCount()).Msg("index built")

	// --- Start the watcher ---

	w := watcher.New(cfg.PollInterval, cfg.Log, cfg.Metrics)
	w.AddHandler(reindexer.Handle)
	if err := w.Watch(project.Path); err != nil {
		return nil, noop, fmt.Errorf("watching project: %w", err)
	}
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	w.Start(watchCtx)

	cleanup := func() {
		cancelWatch()
		w.Stop()
	}

	// --- Snapshot store (optional) ---

	var snapshots *snapshot.Store
	if cfg.SnapshotDir != "" {
		snapshots, err = snapshot.New(snapshot.Config{DataDir: cfg.SnapshotDir})
		if err != nil {
			// The index works without persistence; log and continue.
			cfg.Log.Warn().Err(err).Msg("snapshot store disabled")
			snapshots = nil
		} else {
			stopWatcher := cleanup
			cleanup = func() {
				stopWatcher()
				if err := snapshots.Close(); err != nil {
					cfg.Log.Warn().Err(err).Msg("snapshot store close")
				}
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"specdex",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	resolve := pathResolver(ws, project)

	searchTool := doctools.NewSearchTool(ix, cfg.Metrics)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	getTool := doctools.NewGetTool(ix, cfg.Metrics)
	s.AddTool(getTool.Definition(), getTool.Handle)

	backlinksTool := doctools.NewBacklinksTool(ix, cfg.Metrics)
	s.AddTool(backlinksTool.Definition(), backlinksTool.Handle)

	validateTool := doctools.NewValidateTool(ix, cfg.Metrics)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	cyclesTool := doctools.NewCyclesTool(ix, cfg.Metrics)
	s.AddTool(cyclesTool.Definition(), cyclesTool.Handle)

	statsTool := doctools.NewStatsTool(ix, cfg.Metrics)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	exportTool := doctools.NewExportTool(ix, snapshots, cfg.Metrics)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	scanTool := doctools.NewScanTool(ws.Path, cfg.Metrics)
	s.AddTool(scanTool.Definition(), scanTool.Handle)

	updateTool := doctools.NewUpdateTool(ix, resolve, reindexer, cfg.Metrics)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used before the watcher starts.
func noop() {}

// pickProject selects the project to serve: the named one, else the
// first complete one, else the first discovered one.
func pickProject(ws *workspace.Workspace, name string) (*workspace.Project, error) {
	if len(ws.Projects) == 0 {
		return nil, fmt.Errorf("no projects found in workspace %s", ws.Path)
	}
	if name != "" {
		for i := range ws.Projects {
			if ws.Projects[i].Name == name {
				return &ws.Projects[i], nil
			}
		}
		return nil, fmt.Errorf("project %q not found in workspace %s", name, ws.Path)
	}
	for i := range ws.Projects {
		if ws.Projects[i].Status == workspace.StatusComplete {
			return &ws.Projects[i], nil
		}
	}
	return &ws.Projects[0], nil
}

// pathResolver maps a source-file classification to its on-disk path:
// conventions live at the workspace root, everything else in the
// project directory.
func pathResolver(ws *workspace.Workspace, project *workspace.Project) doctools.PathResolver {
	return func(file docmodel.SourceFile) string {
		if file == docmodel.FileConventions {
			return ws.Conventions.Path
		}
		return filepath.Join(project.Path, string(file)+".md")
	}
}

// serverInstructions returns the instructions that tell the client how
// to use the document index.
func serverInstructions() string {
	return `You have access to specdex, a document index over spec-driven
project artifacts (software-design.md, development-plan.md, test-plan.md,
conventions.md).

Documents are markdown files whose headings carry typed element IDs like
"# C:Parser - Markdown Parser". Markers: R (requirement), C (component),
D (data), I (interface), M (module), UI (user interface), T (task),
TP (test procedure). Body text can reference other elements by writing
their IDs inline or under a "References" heading.

## Tools

- doc_search: find elements by ID, ID prefix, or title words (ranked)
- doc_get: full element by exact ID (body, references, backlinks)
- doc_backlinks: both edge directions for one element
- doc_validate: broken references and graph inconsistencies
- doc_cycles: circular reference chains
- doc_stats: index statistics
- graph_export: full reference graph, optionally saved as a snapshot
- workspace_scan: discover and validate workspace structure
- doc_update: replace one element's body; returns a unified diff

## Usage notes

- The index follows file changes automatically; edits made outside
  doc_update are picked up by the file watcher.
- Broken references and cycles are data, not errors: surface them to the
  user and suggest fixes rather than treating them as failures.
- Prefer doc_search with an ID prefix (e.g. "C:Work") when you only
  remember part of an ID.
- After doc_update, re-read the element with doc_get if you need the
  re-detected references.`
}
