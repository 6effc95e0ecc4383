// Package index is the in-memory, queryable store of document
// elements: O(1) ID lookup, file/kind filtering, ranked search, and the
// bidirectional reference graph with validation and cycle detection.
//
// The index is single-writer: add, remove, and clear must come from one
// logical owner (typically the re-indexing routine driven by file
// events). Reads between writes are fine; interleaving reads with a
// write from another goroutine needs external locking. A failed add
// leaves no rollback guarantee; treat the index as suspect and
// rebuild.
package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/specdex/specdex/internal/docmodel"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// OpError names the element an index mutation failed on.
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("index: failed to %s element %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Index holds the element table, the reference graph, and the derived
// search structures. All of them are updated together on every add and
// remove so no stale entries can be observed between operations.
type Index struct {
	elements map[string]*docmodel.DocElement
	byFile   map[docmodel.SourceFile]map[string]bool

	forward  map[string]map[string]bool // id -> referenced ids
	backward map[string]map[string]bool // id -> referencing ids

	idKeys     map[string]string          // normalized id -> actual id
	partialIDs map[string]map[string]bool // lowercase id prefix (len >= 2) -> ids
	titleWords map[string]map[string]bool // normalized title word -> ids

	lastUpdated time.Time
}

// New creates an empty index.
func New() *Index {
	return &Index{
		elements:    make(map[string]*docmodel.DocElement),
		byFile:      make(map[docmodel.SourceFile]map[string]bool),
		forward:     make(map[string]map[string]bool),
		backward:    make(map[string]map[string]bool),
		idKeys:      make(map[string]string),
		partialIDs:  make(map[string]map[string]bool),
		titleWords:  make(map[string]map[string]bool),
		lastUpdated: timeNow(),
	}
}

// Add inserts an element, atomically replacing any existing element
// with the same ID: old graph and search bindings are removed first so
// backlinks stay correct across re-indexing.
func (ix *Index) Add(e *docmodel.DocElement) error {
	if e == nil {
		return &OpError{Op: "add", ID: "", Err: fmt.Errorf("nil element")}
	}
	if e.ID == "" {
		return &OpError{Op: "add", ID: "", Err: fmt.Errorf("empty element id")}
	}
	if err := docmodel.ValidateKind(e.Kind); err != nil {
		return &OpError{Op: "add", ID: e.ID, Err: err}
	}

	if _, exists := ix.elements[e.ID]; exists {
		ix.Remove(e.ID)
	}

	ix.elements[e.ID] = e

	if ix.byFile[e.File] == nil {
		ix.byFile[e.File] = make(map[string]bool)
	}
	ix.byFile[e.File][e.ID] = true

	ix.addReferences(e)
	ix.addToSearch(e)

	// Pick up reverse edges from elements indexed before this one.
	ix.syncBacklinks(e.ID)

	ix.lastUpdated = timeNow()
	return nil
}

// Remove deletes an element, all forward and backward linkage touching
// it, and its search entries. Reports whether the element was present.
//
// Elements that referenced the removed ID lose that forward edge; it
// comes back when their own file is re-indexed.
func (ix *Index) Remove(id string) bool {
	e, ok := ix.elements[id]
	if !ok {
		return false
	}

	delete(ix.elements, id)

	if bucket := ix.byFile[e.File]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(ix.byFile, e.File)
		}
	}

	ix.removeReferences(id)
	ix.removeFromSearch(e)

	ix.lastUpdated = timeNow()
	return true
}

// Get returns the element with the given ID, or nil.
func (ix *Index) Get(id string) *docmodel.DocElement {
	return ix.elements[id]
}

// Has reports whether the ID is indexed.
func (ix *Index) Has(id string) bool {
	_, ok := ix.elements[id]
	return ok
}

// All returns every indexed element, ordered by ID.
func (ix *Index) All() []*docmodel.DocElement {
	out := make([]*docmodel.DocElement, 0, len(ix.elements))
	for _, e := range ix.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByFile returns the elements from one artifact file, ordered by ID.
func (ix *Index) ByFile(file docmodel.SourceFile) []*docmodel.DocElement {
	var out []*docmodel.DocElement
	for id := range ix.byFile[file] {
		if e, ok := ix.elements[id]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByKind returns the elements of one kind, ordered by ID.
func (ix *Index) ByKind(kind docmodel.Kind) []*docmodel.DocElement {
	var out []*docmodel.DocElement
	for _, e := range ix.elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// References returns the IDs the element references, sorted. The set
// semantics make ordering insignificant; sorting keeps output stable.
func (ix *Index) References(id string) []string {
	return sortedKeys(ix.forward[id])
}

// Backlinks returns the IDs referencing the element, sorted.
func (ix *Index) Backlinks(id string) []string {
	return sortedKeys(ix.backward[id])
}

// Len returns the number of indexed elements.
func (ix *Index) Len() int {
	return len(ix.elements)
}

// ReferenceCount returns the total number of forward edges.
func (ix *Index) ReferenceCount() int {
	n := 0
	for _, targets := range ix.forward {
		n += len(targets)
	}
	return n
}

// Clear drops everything, returning the index to its empty state.
func (ix *Index) Clear() {
	ix.elements = make(map[string]*docmodel.DocElement)
	ix.byFile = make(map[docmodel.SourceFile]map[string]bool)
	ix.forward = make(map[string]map[string]bool)
	ix.backward = make(map[string]map[string]bool)
	ix.idKeys = make(map[string]string)
	ix.partialIDs = make(map[string]map[string]bool)
	ix.titleWords = make(map[string]map[string]bool)
	ix.lastUpdated = timeNow()
}

// --- Reference graph maintenance ---

func (ix *Index) addReferences(e *docmodel.DocElement) {
	// Drop any forward edges left from a previous binding of this ID.
	for old := range ix.forward[e.ID] {
		ix.unlinkBackward(old, e.ID)
	}

	targets := make(map[string]bool, len(e.Refs))
	for _, ref := range e.Refs {
		targets[ref] = true
	}
	ix.forward[e.ID] = targets

	for target := range targets {
		if ix.backward[target] == nil {
			ix.backward[target] = make(map[string]bool)
		}
		ix.backward[target][e.ID] = true
		ix.syncBacklinks(target)
	}
}

// removeReferences drops every edge touching the element: outgoing
// edges with their backlink mirrors, then incoming edges held by the
// elements that referenced it.
func (ix *Index) removeReferences(id string) {
	for target := range ix.forward[id] {
		ix.unlinkBackward(target, id)
	}
	delete(ix.forward, id)

	for source := range ix.backward[id] {
		delete(ix.forward[source], id)
	}
	delete(ix.backward, id)
}

func (ix *Index) unlinkBackward(target, source string) {
	if set := ix.backward[target]; set != nil {
		delete(set, source)
		if len(set) == 0 {
			delete(ix.backward, target)
		}
	}
	ix.syncBacklinks(target)
}

// syncBacklinks mirrors the backward adjacency into the stored
// element's Backlinks slice so serialized elements carry their reverse
// edges.
func (ix *Index) syncBacklinks(id string) {
	e, ok := ix.elements[id]
	if !ok {
		return
	}
	e.Backlinks = sortedKeys(ix.backward[id])
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
