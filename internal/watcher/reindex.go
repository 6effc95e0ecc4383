package watcher

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/parser"
)

// Reindexer applies file events to the index: re-parse the changed
// file, drop that file's stale elements, insert the current ones.
// It is the single writer the index contract requires; wire it as the
// only handler that mutates the index.
type Reindexer struct {
	index   *index.Index
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewReindexer creates a reindexer over the given index. The metrics
// may be nil.
func NewReindexer(ix *index.Index, log zerolog.Logger, m *metrics.Metrics) *Reindexer {
	return &Reindexer{index: ix, log: log, metrics: m}
}

// Handle is the watcher Handler: deletions drop the file's elements,
// creations and modifications reindex it.
func (r *Reindexer) Handle(ev Event) {
	var err error
	switch ev.Type {
	case EventDeleted:
		r.removeFileElements(parser.FileForPath(ev.Path))
	case EventCreated, EventModified:
		err = r.IndexFile(ev.Path)
	}
	if err != nil {
		r.log.Error().Err(err).Str("path", ev.Path).Msg("reindex failed")
		return
	}
	r.log.Info().
		Str("type", string(ev.Type)).
		Str("path", ev.Path).
		Int("indexed", r.index.Len()).
		Msg("index updated")
}

// IndexFile parses one markdown file and replaces its elements in the
// index.
func (r *Reindexer) IndexFile(path string) error {
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file := parser.FileForPath(path)
	elements := parser.NewForPath(path, r.log).Parse(string(content))

	r.removeFileElements(file)
	var failed int
	for _, e := range elements {
		if err := r.index.Add(e); err != nil {
			failed++
			r.log.Warn().Err(err).Str("id", e.ID).Msg("skipping element")
			if r.metrics != nil {
				r.metrics.IndexOperationsTotal.WithLabelValues("add", "error").Inc()
			}
			continue
		}
		if r.metrics != nil {
			r.metrics.IndexOperationsTotal.WithLabelValues("add", "ok").Inc()
		}
	}

	if r.metrics != nil {
		r.metrics.FilesParsedTotal.Inc()
		r.metrics.ElementsParsedTotal.Add(float64(len(elements) - failed))
		r.metrics.ParseDurationSeconds.Observe(time.Since(start).Seconds())
		r.metrics.ObserveIndex(r.index.Len(), r.index.ReferenceCount())
	}
	return nil
}

func (r *Reindexer) removeFileElements(file docmodel.SourceFile) {
	for _, e := range r.index.ByFile(file) {
		r.index.Remove(e.ID)
		if r.metrics != nil {
			r.metrics.IndexOperationsTotal.WithLabelValues("remove", "ok").Inc()
		}
	}
	if r.metrics != nil {
		r.metrics.ObserveIndex(r.index.Len(), r.index.ReferenceCount())
	}
}
