package index

import (
	"fmt"
	"time"
)

// ValidationReport lists reference-graph problems. BrokenReferences are
// forward edges whose target is not indexed; MissingBacklinks are
// forward edges without the matching backward edge, which indicates
// internal corruption and should never occur through Add/Remove.
type ValidationReport struct {
	BrokenReferences []string `json:"broken_references"` // "source -> target"
	MissingBacklinks []string `json:"missing_backlinks"` // "target <- source"
}

// ValidateReferences audits the reference graph. Broken and circular
// references are data, never errors; the caller decides what to do.
func (ix *Index) ValidateReferences() ValidationReport {
	report := ValidationReport{
		BrokenReferences: []string{},
		MissingBacklinks: []string{},
	}

	for _, source := range sortedKeys(boolKeys(ix.forward)) {
		for _, target := range sortedKeys(ix.forward[source]) {
			if !ix.Has(target) {
				report.BrokenReferences = append(report.BrokenReferences, fmt.Sprintf("%s -> %s", source, target))
				continue
			}
			if !ix.backward[target][source] {
				report.MissingBacklinks = append(report.MissingBacklinks, fmt.Sprintf("%s <- %s", target, source))
			}
		}
	}
	return report
}

// boolKeys adapts a nested map's key set for sortedKeys.
func boolKeys[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// FindCircularReferences runs a depth-first traversal over the forward
// graph, following only edges whose target exists, and returns every
// cycle found: the path from the first repeated node back to itself.
// Self-loops count. Fully explored nodes are never revisited, so the
// traversal terminates on any graph.
func (ix *Index) FindCircularReferences() [][]string {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var cycles [][]string

	var dfs func(id string, path []string)
	dfs = func(id string, path []string) {
		if inStack[id] {
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			cycles = append(cycles, cycle)
			return
		}
		if visited[id] {
			return
		}
		visited[id] = true
		inStack[id] = true

		for _, target := range sortedKeys(ix.forward[id]) {
			if ix.Has(target) {
				dfs(target, append(path, id))
			}
		}

		inStack[id] = false
	}

	for _, id := range sortedKeys(boolKeys(ix.elements)) {
		if !visited[id] {
			dfs(id, nil)
		}
	}
	return cycles
}

// Statistics is a point-in-time summary of the index.
type Statistics struct {
	TotalElements       int            `json:"total_elements"`
	ElementsByKind      map[string]int `json:"elements_by_kind"`
	ElementsByFile      map[string]int `json:"elements_by_file"`
	TotalReferences     int            `json:"total_references"`
	TotalBacklinks      int            `json:"total_backlinks"`
	OrphanedReferences  int            `json:"orphaned_references"`
	ElementsWithoutRefs int            `json:"elements_without_refs"`
	SearchIndexSize     int            `json:"search_index_size"`
	LastUpdated         time.Time      `json:"last_updated"`
}

// GetStatistics computes current index statistics. Orphaned references
// are forward edges whose target is missing from the index.
func (ix *Index) GetStatistics() Statistics {
	stats := Statistics{
		TotalElements:   len(ix.elements),
		ElementsByKind:  make(map[string]int),
		ElementsByFile:  make(map[string]int),
		SearchIndexSize: len(ix.titleWords),
		LastUpdated:     ix.lastUpdated,
	}

	for _, e := range ix.elements {
		stats.ElementsByKind[string(e.Kind)]++
		stats.ElementsByFile[string(e.File)]++
	}

	for _, targets := range ix.forward {
		stats.TotalReferences += len(targets)
		for target := range targets {
			if !ix.Has(target) {
				stats.OrphanedReferences++
			}
		}
	}
	for _, sources := range ix.backward {
		stats.TotalBacklinks += len(sources)
	}
	for id := range ix.elements {
		if len(ix.forward[id]) == 0 {
			stats.ElementsWithoutRefs++
		}
	}
	return stats
}

// ElementSummary is the compact element record carried by a graph
// export.
type ElementSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	File  string `json:"file"`
}

// GraphExport is a serializable snapshot of the reference graph,
// suitable for persistence or transmission to a front end. Reference
// and backlink maps carry only non-empty entries.
type GraphExport struct {
	Elements   map[string]ElementSummary `json:"elements"`
	References map[string][]string       `json:"references"`
	Backlinks  map[string][]string       `json:"backlinks"`
	Statistics Statistics                `json:"statistics"`
}

// ExportReferenceGraph snapshots the whole graph.
func (ix *Index) ExportReferenceGraph() GraphExport {
	export := GraphExport{
		Elements:   make(map[string]ElementSummary, len(ix.elements)),
		References: make(map[string][]string),
		Backlinks:  make(map[string][]string),
		Statistics: ix.GetStatistics(),
	}

	for id, e := range ix.elements {
		export.Elements[id] = ElementSummary{
			ID:    e.ID,
			Title: e.Title,
			Kind:  string(e.Kind),
			File:  string(e.File),
		}
	}
	for id, targets := range ix.forward {
		if len(targets) > 0 {
			export.References[id] = sortedKeys(targets)
		}
	}
	for id, sources := range ix.backward {
		if len(sources) > 0 {
			export.Backlinks[id] = sortedKeys(sources)
		}
	}
	return export
}
