package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
)

func testReindexer(t *testing.T) (*Reindexer, *index.Index) {
	t.Helper()
	ix := index.New()
	r := NewReindexer(ix, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))
	return r, ix
}

func TestIndexFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "software-design.md")
	write(t, path, "# C:Alpha - Alpha\n\nUses C:Beta.\n\n## C:Beta - Beta\n\nbody\n")

	r, ix := testReindexer(t)
	if err := r.IndexFile(path); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len = %d", ix.Len())
	}
	if got := ix.Backlinks("C:Beta"); len(got) != 1 || got[0] != "C:Alpha" {
		t.Errorf("Backlinks = %v", got)
	}
}

func TestIndexFile_ReplacesStaleElements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "software-design.md")
	write(t, path, "# C:Old - Old\n")

	r, ix := testReindexer(t)
	if err := r.IndexFile(path); err != nil {
		t.Fatal(err)
	}

	write(t, path, "# C:New - New\n")
	if err := r.IndexFile(path); err != nil {
		t.Fatal(err)
	}
	if ix.Has("C:Old") {
		t.Error("stale element survived reindex")
	}
	if !ix.Has("C:New") || ix.Len() != 1 {
		t.Errorf("Len = %d, Has(C:New) = %v", ix.Len(), ix.Has("C:New"))
	}
}

func TestHandle_DeletedDropsFileElements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-plan.md")
	write(t, path, "# T:0001 - Task\n\npending\n")

	r, ix := testReindexer(t)
	if err := r.IndexFile(path); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 1 {
		t.Fatalf("Len = %d", ix.Len())
	}

	r.Handle(Event{Type: EventDeleted, Path: path, Timestamp: time.Now()})
	if ix.Len() != 0 {
		t.Errorf("Len = %d after deletion", ix.Len())
	}
}

func TestHandle_MissingFile(t *testing.T) {
	r, ix := testReindexer(t)
	// A created event for a file that vanished before the read must not
	// panic or index anything.
	r.Handle(Event{Type: EventCreated, Path: filepath.Join(t.TempDir(), "gone.md")})
	if ix.Len() != 0 {
		t.Errorf("Len = %d", ix.Len())
	}
}

func TestWatcherDrivesReindexer(t *testing.T) {
	dir := t.TempDir()
	r, ix := testReindexer(t)

	w := New(time.Hour, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))
	w.AddHandler(r.Handle)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "development-plan.md")
	write(t, path, "# T:0042 - Implement thing\n\nworking on it\n")
	w.Poll()
	if !ix.Has("T:0042") {
		t.Fatalf("element not indexed after poll")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	w.Poll()
	if ix.Has("T:0042") {
		t.Errorf("element survived file deletion")
	}
}
