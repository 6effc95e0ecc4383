// Package workspace discovers and validates the on-disk layout the
// document pipeline feeds on: a workspace root holding one directory
// per project, each with the three artifact files, plus a shared
// conventions.md at the root.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// --- Project status ---

type Status string

const (
	StatusComplete   Status = "complete"   // all required files present
	StatusIncomplete Status = "incomplete" // some required files missing
	StatusInvalid    Status = "invalid"    // no required files, or broken structure
)

var validStatuses = map[Status]bool{
	StatusComplete:   true,
	StatusIncomplete: true,
	StatusInvalid:    true,
}

func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid project status: %s", s)
	}
	return nil
}

// --- Layout constants ---

// RequiredProjectFiles are the artifact files every project directory
// must carry, in canonical order.
var RequiredProjectFiles = []string{
	"software-design.md",
	"development-plan.md",
	"test-plan.md",
}

// ConventionsFile is the shared file expected at the workspace root.
const ConventionsFile = "conventions.md"

var skipDirs = map[string]struct{}{
	".git":         {},
	".vscode":      {},
	"__pycache__":  {},
	"node_modules": {},
	"venv":         {},
	".venv":        {},
	"dist":         {},
	"build":        {},
	"target":       {},
}

var reservedNames = map[string]struct{}{
	"templates": {},
	"shared":    {},
	"common":    {},
	"lib":       {},
	"bin":       {},
}

// --- Types ---

// FileInfo records presence and basic metadata for one expected file.
type FileInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Exists       bool      `json:"exists"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// Project describes one discovered project directory.
type Project struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Status Status `json:"status"`

	SoftwareDesign  FileInfo `json:"software_design"`
	DevelopmentPlan FileInfo `json:"development_plan"`
	TestPlan        FileInfo `json:"test_plan"`

	AdditionalFiles []string `json:"additional_files"`
	Issues          []string `json:"issues"`
}

// RequiredFiles returns the project's three artifact records in
// canonical order.
func (p *Project) RequiredFiles() []FileInfo {
	return []FileInfo{p.SoftwareDesign, p.DevelopmentPlan, p.TestPlan}
}

// MarkdownPaths returns the absolute paths of the required files that
// exist, ready for parsing and watching.
func (p *Project) MarkdownPaths() []string {
	var paths []string
	for _, f := range p.RequiredFiles() {
		if f.Exists {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// Workspace describes the discovered workspace as a whole.
type Workspace struct {
	Path        string    `json:"path"`
	Conventions FileInfo  `json:"conventions_file"`
	Projects    []Project `json:"projects"`

	TotalDirectories   int `json:"total_directories"`
	CompleteProjects   int `json:"complete_projects"`
	IncompleteProjects int `json:"incomplete_projects"`
	InvalidProjects    int `json:"invalid_projects"`

	Issues []string `json:"issues"`
}

// --- Discovery ---

// Discovery scans one workspace root. A .gitignore at the root, when
// present, excludes matching project directories from discovery.
type Discovery struct {
	root string
	gi   *ignore.GitIgnore
}

// NewDiscovery creates a Discovery for the given root. An empty root
// defaults to ~/software-projects.
func NewDiscovery(root string) (*Discovery, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		root = filepath.Join(home, "software-projects")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}
	return &Discovery{root: abs, gi: loadGitignore(abs)}, nil
}

// Root returns the resolved workspace root path.
func (d *Discovery) Root() string { return d.root }

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// DiscoverProjects scans the workspace root for project directories and
// analyzes each one. A single unreadable project never aborts the scan.
func (d *Discovery) DiscoverProjects() ([]Project, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("workspace path does not exist: %s: %w", d.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace path is not a directory: %s", d.root)
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace directory: %w", err)
	}

	var projects []Project
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, skip := skipDirs[name]; skip {
			continue
		}
		if d.gi != nil && d.gi.MatchesPath(name+"/") {
			continue
		}
		projects = append(projects, d.analyzeProject(filepath.Join(d.root, name)))
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Discover returns the complete workspace picture: conventions file,
// projects, counts, and workspace-level issues.
func (d *Discovery) Discover() (*Workspace, error) {
	ws := &Workspace{
		Path:        d.root,
		Conventions: statFile(filepath.Join(d.root, ConventionsFile)),
		Issues:      []string{},
	}

	if !ws.Conventions.Exists {
		ws.Issues = append(ws.Issues, "missing workspace conventions.md file")
	} else if ws.Conventions.SizeBytes == 0 {
		ws.Issues = append(ws.Issues, "workspace conventions.md file is empty")
	}

	projects, err := d.DiscoverProjects()
	if err != nil {
		return nil, err
	}
	ws.Projects = projects

	for _, p := range projects {
		switch p.Status {
		case StatusComplete:
			ws.CompleteProjects++
		case StatusIncomplete:
			ws.IncompleteProjects++
		case StatusInvalid:
			ws.InvalidProjects++
		}
	}
	ws.TotalDirectories = len(projects)

	return ws, nil
}

// FindProject locates one project by directory name, or returns nil.
func (d *Discovery) FindProject(name string) (*Project, error) {
	projects, err := d.DiscoverProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Name == name {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// ValidateStructure flattens workspace and per-project issues into one
// list, project issues prefixed with the project name.
func (d *Discovery) ValidateStructure() ([]string, error) {
	ws, err := d.Discover()
	if err != nil {
		return nil, err
	}
	issues := append([]string{}, ws.Issues...)
	for _, p := range ws.Projects {
		for _, issue := range p.Issues {
			issues = append(issues, fmt.Sprintf("%s: %s", p.Name, issue))
		}
	}
	return issues, nil
}

// --- Per-project analysis ---

func (d *Discovery) analyzeProject(path string) Project {
	p := Project{
		Name:            filepath.Base(path),
		Path:            path,
		AdditionalFiles: []string{},
		Issues:          []string{},
	}
	p.Issues = append(p.Issues, validateName(p.Name)...)

	p.SoftwareDesign = statFile(filepath.Join(path, RequiredProjectFiles[0]))
	p.DevelopmentPlan = statFile(filepath.Join(path, RequiredProjectFiles[1]))
	p.TestPlan = statFile(filepath.Join(path, RequiredProjectFiles[2]))

	required := map[string]bool{}
	for _, name := range RequiredProjectFiles {
		required[name] = true
	}
	if entries, err := os.ReadDir(path); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && !required[entry.Name()] {
				p.AdditionalFiles = append(p.AdditionalFiles, entry.Name())
			}
		}
	}
	sort.Strings(p.AdditionalFiles)

	var missing, empty []string
	for _, f := range p.RequiredFiles() {
		if !f.Exists {
			missing = append(missing, f.Name)
		} else if f.SizeBytes == 0 {
			empty = append(empty, f.Name)
		}
	}
	if len(missing) > 0 {
		p.Issues = append(p.Issues, "missing required files: "+strings.Join(missing, ", "))
	}
	if len(empty) > 0 {
		p.Issues = append(p.Issues, "empty required files: "+strings.Join(empty, ", "))
	}

	switch {
	case len(missing) == 0:
		p.Status = StatusComplete
	case len(missing) < len(RequiredProjectFiles):
		p.Status = StatusIncomplete
	default:
		p.Status = StatusInvalid
	}
	return p
}

func statFile(path string) FileInfo {
	f := FileInfo{Name: filepath.Base(path), Path: path}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return f
	}
	f.Exists = true
	f.SizeBytes = info.Size()
	f.LastModified = info.ModTime()
	return f
}

// validateName checks a project directory name: word characters and
// hyphens only, 2 to 50 characters, not a reserved name.
func validateName(name string) []string {
	var issues []string

	for _, r := range name {
		valid := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid {
			issues = append(issues, fmt.Sprintf("project name %q contains invalid characters", name))
			break
		}
	}
	if len(name) < 2 {
		issues = append(issues, fmt.Sprintf("project name %q is too short", name))
	} else if len(name) > 50 {
		issues = append(issues, fmt.Sprintf("project name %q is too long", name))
	}
	if _, reserved := reservedNames[strings.ToLower(name)]; reserved {
		issues = append(issues, fmt.Sprintf("project name %q is reserved", name))
	}
	return issues
}

// --- Statistics ---

// Statistics summarizes a discovered workspace.
type Statistics struct {
	WorkspacePath      string         `json:"workspace_path"`
	TotalProjects      int            `json:"total_projects"`
	TotalDirectories   int            `json:"total_directories"`
	StatusDistribution map[string]int `json:"project_status_distribution"`
	TotalSizeBytes     int64          `json:"total_size_bytes"`
	AverageProjectSize int64          `json:"average_project_size_bytes"`
	ConventionsExists  bool           `json:"conventions_file_exists"`
	ConventionsSize    int64          `json:"conventions_file_size"`
	WorkspaceIssues    int            `json:"workspace_issues"`
	ProjectIssues      int            `json:"total_project_issues"`
}

// Summarize computes statistics over an already discovered workspace.
func Summarize(ws *Workspace) Statistics {
	stats := Statistics{
		WorkspacePath:    ws.Path,
		TotalProjects:    len(ws.Projects),
		TotalDirectories: ws.TotalDirectories,
		StatusDistribution: map[string]int{
			string(StatusComplete):   ws.CompleteProjects,
			string(StatusIncomplete): ws.IncompleteProjects,
			string(StatusInvalid):    ws.InvalidProjects,
		},
		TotalSizeBytes:    ws.Conventions.SizeBytes,
		ConventionsExists: ws.Conventions.Exists,
		ConventionsSize:   ws.Conventions.SizeBytes,
		WorkspaceIssues:   len(ws.Issues),
	}

	var projectTotal int64
	for _, p := range ws.Projects {
		var size int64
		for _, f := range p.RequiredFiles() {
			size += f.SizeBytes
		}
		projectTotal += size
		stats.ProjectIssues += len(p.Issues)
	}
	stats.TotalSizeBytes += projectTotal
	if len(ws.Projects) > 0 {
		stats.AverageProjectSize = projectTotal / int64(len(ws.Projects))
	}
	return stats
}
