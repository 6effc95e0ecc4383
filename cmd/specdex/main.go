// Specdex: document index MCP server for spec-driven project artifacts.
//
// It scans a workspace of markdown artifact files, extracts typed
// document elements from headings, builds a queryable reference graph,
// and serves it over MCP while watching the files for changes.
//
// Usage:
//
//	specdex serve [flags]   # Start MCP server (stdio transport)
//	specdex scan  [flags]   # Scan and validate a workspace, print report
//	specdex version         # Print the version
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/specdex/specdex/internal/logging"
	"github.com/specdex/specdex/internal/metrics"
	dxserver "github.com/specdex/specdex/internal/server"
	"github.com/specdex/specdex/internal/snapshot"
	"github.com/specdex/specdex/internal/workspace"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "scan":
		if err := runScan(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("specdex v%s\n", dxserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	workspaceRoot := fs.String("workspace", "", "workspace root (default ~/software-projects)")
	project := fs.String("project", "", "project name to serve (default: first complete project)")
	poll := fs.Duration("poll", time.Second, "file watcher poll interval")
	snapshotDir := fs.String("snapshots", defaultSnapshotDir(), "snapshot store directory (empty disables)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	pretty := fs.Bool("pretty", false, "human-readable log output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: *logLevel, Pretty: *pretty})

	s, cleanup, err := dxserver.New(dxserver.Config{
		WorkspaceRoot: *workspaceRoot,
		Project:       *project,
		PollInterval:  *poll,
		SnapshotDir:   *snapshotDir,
		Log:           log,
		Metrics:       metrics.Default(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	workspaceRoot := fs.String("workspace", "", "workspace root (default ~/software-projects)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	discovery, err := workspace.NewDiscovery(*workspaceRoot)
	if err != nil {
		return err
	}
	ws, err := discovery.Discover()
	if err != nil {
		return err
	}

	report := struct {
		Workspace  *workspace.Workspace `json:"workspace"`
		Statistics workspace.Statistics `json:"statistics"`
	}{ws, workspace.Summarize(ws)}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(out))

	for _, p := range ws.Projects {
		for _, issue := range p.Issues {
			fmt.Fprintf(os.Stderr, "issue: %s: %s\n", p.Name, issue)
		}
	}
	return nil
}

func defaultSnapshotDir() string {
	return snapshot.DefaultConfig().DataDir
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Specdex v%s - document index MCP server

Usage:
  specdex serve [flags]   Start the MCP server (stdio transport)
  specdex scan  [flags]   Scan and validate a workspace, print a JSON report
  specdex version         Print the version

Serve flags:
  -workspace path   Workspace root (default ~/software-projects)
  -project name     Project to serve (default: first complete project)
  -poll duration    Watcher poll interval (default 1s)
  -snapshots path   Snapshot store directory (empty disables)
  -log-level level  debug, info, warn, error (default info)
  -pretty           Human-readable log output

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "specdex": {
        "command": "specdex",
        "args": ["serve", "-workspace", "/path/to/workspace"]
      }
    }
  }
`, dxserver.Version)
}
