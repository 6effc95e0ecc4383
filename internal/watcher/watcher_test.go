package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/metrics"
)

func testWatcher(t *testing.T) (*Watcher, *[]Event) {
	t.Helper()
	w := New(time.Hour, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))
	events := &[]Event{}
	w.AddHandler(func(ev Event) { *events = append(*events, ev) })
	return w, events
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPoll_CreatedModifiedDeleted(t *testing.T) {
	dir := t.TempDir()
	w, events := testWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "software-design.md")
	write(t, path, "# C:Foo - Foo\n")
	w.Poll()
	if len(*events) != 1 || (*events)[0].Type != EventCreated || (*events)[0].Path != path {
		t.Fatalf("events = %v, want one created", *events)
	}
	if (*events)[0].Checksum == "" || (*events)[0].SizeBytes == 0 {
		t.Errorf("created event missing metadata: %+v", (*events)[0])
	}

	// Same content, no event.
	w.Poll()
	if len(*events) != 1 {
		t.Fatalf("unchanged file produced event: %v", *events)
	}

	// Content change is caught by checksum even if mtime granularity
	// hides it.
	write(t, path, "# C:Foo - Foo renamed\n")
	w.Poll()
	if len(*events) != 2 || (*events)[1].Type != EventModified {
		t.Fatalf("events = %v, want modified", *events)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	w.Poll()
	if len(*events) != 3 || (*events)[2].Type != EventDeleted {
		t.Fatalf("events = %v, want deleted", *events)
	}
}

func TestWatch_SeedsWithoutEvents(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "existing.md"), "content\n")

	w, events := testWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}
	w.Poll()
	if len(*events) != 0 {
		t.Errorf("pre-existing file surfaced as event: %v", *events)
	}
}

func TestPoll_IgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	w, events := testWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(dir, "notes.txt"), "not markdown")
	w.Poll()
	if len(*events) != 0 {
		t.Errorf("non-markdown file produced events: %v", *events)
	}
}

func TestPoll_RecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "project-a")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	w, events := testWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(sub, "test-plan.md"), "# T:0001 - Task\n")
	w.Poll()
	if len(*events) != 1 || (*events)[0].Type != EventCreated {
		t.Errorf("events = %v", *events)
	}
}

func TestWatch_RejectsMissingDir(t *testing.T) {
	w, _ := testWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("want error for missing directory")
	}
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	w, _ := testWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	w.Stop()

	// Stop is idempotent.
	w.Stop()
}
