package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// makeProject creates a project dir with the named required files.
func makeProject(t *testing.T, root, name string, files ...string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		writeFile(t, filepath.Join(dir, f), "# R:Purpose - Purpose\n\nbody\n")
	}
}

func discovery(t *testing.T, root string) *Discovery {
	t.Helper()
	d, err := NewDiscovery(root)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// --- DiscoverProjects ---

func TestDiscoverProjects_StatusClassification(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "full-project", RequiredProjectFiles...)
	makeProject(t, root, "partial-project", "software-design.md")
	makeProject(t, root, "empty-project")

	projects, err := discovery(t, root).DiscoverProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 3 {
		t.Fatalf("got %d projects", len(projects))
	}

	byName := map[string]Project{}
	for _, p := range projects {
		byName[p.Name] = p
	}
	if got := byName["full-project"].Status; got != StatusComplete {
		t.Errorf("full-project = %s", got)
	}
	if got := byName["partial-project"].Status; got != StatusIncomplete {
		t.Errorf("partial-project = %s", got)
	}
	if got := byName["empty-project"].Status; got != StatusInvalid {
		t.Errorf("empty-project = %s", got)
	}
}

func TestDiscoverProjects_SkipsHiddenAndKnownDirs(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "real-project", RequiredProjectFiles...)
	makeProject(t, root, ".hidden")
	makeProject(t, root, "node_modules")
	writeFile(t, filepath.Join(root, "loose-file.md"), "not a project")

	projects, err := discovery(t, root).DiscoverProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Name != "real-project" {
		t.Errorf("projects = %v", projects)
	}
}

func TestDiscoverProjects_GitignoreExcludes(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "kept-project", RequiredProjectFiles...)
	makeProject(t, root, "scratch", RequiredProjectFiles...)
	writeFile(t, filepath.Join(root, ".gitignore"), "scratch/\n")

	projects, err := discovery(t, root).DiscoverProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Name != "kept-project" {
		t.Errorf("projects = %v, want scratch excluded", names(projects))
	}
}

func TestDiscoverProjects_MissingRoot(t *testing.T) {
	d := discovery(t, filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := d.DiscoverProjects(); err == nil {
		t.Error("want error for missing workspace root")
	}
}

func names(projects []Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Name
	}
	return out
}

// --- Project analysis ---

func TestAnalyzeProject_IssuesAndExtras(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "my-project", "software-design.md", "test-plan.md")
	writeFile(t, filepath.Join(root, "my-project", "notes.md"), "extra")
	writeFile(t, filepath.Join(root, "my-project", "development-plan.md"), "") // empty

	p, err := discovery(t, root).FindProject("my-project")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("project not found")
	}
	if p.Status != StatusComplete {
		t.Errorf("Status = %s, empty files still count as present", p.Status)
	}
	if len(p.AdditionalFiles) != 1 || p.AdditionalFiles[0] != "notes.md" {
		t.Errorf("AdditionalFiles = %v", p.AdditionalFiles)
	}
	if len(p.Issues) != 1 {
		t.Errorf("Issues = %v, want the empty-file warning only", p.Issues)
	}
}

func TestMarkdownPaths(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "proj-a", "software-design.md", "test-plan.md")

	p, err := discovery(t, root).FindProject("proj-a")
	if err != nil || p == nil {
		t.Fatalf("FindProject: %v, %v", p, err)
	}
	paths := p.MarkdownPaths()
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("returned path does not exist: %s", path)
		}
	}
}

func TestValidateName(t *testing.T) {
	cases := map[string]int{
		"good-name":  0,
		"also_good2": 0,
		"x":          1, // too short
		"bad name":   1, // space
		"shared":     1, // reserved
		"Bad!Name":   1,
		"!":          2, // invalid character and too short
	}
	for name, want := range cases {
		if got := len(validateName(name)); got != want {
			t.Errorf("validateName(%q) = %d issues, want %d", name, got, want)
		}
	}
}

// --- Discover / Summarize ---

func TestDiscover_ConventionsAndCounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConventionsFile), "# Conventions\n")
	makeProject(t, root, "done-proj", RequiredProjectFiles...)
	makeProject(t, root, "half-proj", "software-design.md")

	ws, err := discovery(t, root).Discover()
	if err != nil {
		t.Fatal(err)
	}
	if !ws.Conventions.Exists {
		t.Error("conventions file not seen")
	}
	if len(ws.Issues) != 0 {
		t.Errorf("Issues = %v", ws.Issues)
	}
	if ws.CompleteProjects != 1 || ws.IncompleteProjects != 1 || ws.InvalidProjects != 0 {
		t.Errorf("counts = %d/%d/%d", ws.CompleteProjects, ws.IncompleteProjects, ws.InvalidProjects)
	}
}

func TestDiscover_MissingConventions(t *testing.T) {
	root := t.TempDir()
	makeProject(t, root, "some-proj", RequiredProjectFiles...)

	ws, err := discovery(t, root).Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(ws.Issues) != 1 {
		t.Errorf("Issues = %v, want missing conventions.md", ws.Issues)
	}
}

func TestValidateStructure_PrefixesProjectName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConventionsFile), "conventions\n")
	makeProject(t, root, "half-proj", "software-design.md")

	issues, err := discovery(t, root).ValidateStructure()
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || issues[0] != "half-proj: missing required files: development-plan.md, test-plan.md" {
		t.Errorf("issues = %v", issues)
	}
}

func TestSummarize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConventionsFile), "0123456789")
	makeProject(t, root, "proj-one", RequiredProjectFiles...)

	ws, err := discovery(t, root).Discover()
	if err != nil {
		t.Fatal(err)
	}
	stats := Summarize(ws)
	if stats.TotalProjects != 1 || !stats.ConventionsExists || stats.ConventionsSize != 10 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.StatusDistribution["complete"] != 1 {
		t.Errorf("StatusDistribution = %v", stats.StatusDistribution)
	}
	if stats.AverageProjectSize == 0 || stats.TotalSizeBytes != 10+stats.AverageProjectSize {
		t.Errorf("sizes = %+v", stats)
	}
}
