// Package docmodel defines the core document element types.
//
// A DocElement is one heading-delimited section of a markdown artifact
// with a stable ID that other sections can reference. Elements are
// assembled by the parser and cross-linked by the index; outside of
// backlink accumulation in the index they are treated as immutable
// value objects.
package docmodel

import (
	"encoding/json"
	"fmt"
)

// --- Kind enum ---

// Kind classifies a document element by the marker of its ID.
type Kind string

const (
	KindRequirement Kind = "Requirement"
	KindComponent   Kind = "Component"
	KindData        Kind = "Data"
	KindInterface   Kind = "Interface"
	KindMethod      Kind = "Method"
	KindUI          Kind = "UI"
	KindTask        Kind = "Task"
	KindTest        Kind = "Test"
	KindOther       Kind = "Other"
)

// validKinds is the closed set of element kinds.
var validKinds = map[Kind]bool{
	KindRequirement: true,
	KindComponent:   true,
	KindData:        true,
	KindInterface:   true,
	KindMethod:      true,
	KindUI:          true,
	KindTask:        true,
	KindTest:        true,
	KindOther:       true,
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid element kind %q", k)
	}
	return nil
}

// --- SourceFile enum ---

// SourceFile identifies which workspace artifact an element came from.
type SourceFile string

const (
	FileConventions     SourceFile = "conventions"
	FileSoftwareDesign  SourceFile = "software-design"
	FileDevelopmentPlan SourceFile = "development-plan"
	FileTestPlan        SourceFile = "test-plan"
)

// validFiles is the set of recognized artifact files.
var validFiles = map[SourceFile]bool{
	FileConventions:     true,
	FileSoftwareDesign:  true,
	FileDevelopmentPlan: true,
	FileTestPlan:        true,
}

// ValidateSourceFile returns an error if the file is not recognized.
func ValidateSourceFile(f SourceFile) error {
	if !validFiles[f] {
		return fmt.Errorf("invalid source file %q", f)
	}
	return nil
}

// --- Status enum ---

// Status tracks task progress. Only elements of KindTask carry a status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// validStatuses is the set of allowed task statuses.
var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid task status %q", s)
	}
	return nil
}

// --- DocElement ---

// DocElement is one addressable section of a markdown artifact.
//
// Refs is the ordered, deduplicated list of IDs referenced by the body.
// Backlinks is computed: it stays empty until the element is added to
// an index, which maintains the reverse edges.
type DocElement struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Title        string     `json:"title"`
	File         SourceFile `json:"file"`
	HeadingLevel int        `json:"heading_level"`
	Anchor       string     `json:"anchor"`
	BodyMarkdown string     `json:"body_markdown"`
	Refs         []string   `json:"refs"`
	Backlinks    []string   `json:"backlinks"`

	// Status is set only for KindTask elements.
	Status Status `json:"status,omitempty"`
}

// New creates a validated DocElement. Task elements without a status
// default to pending; a status on any non-task kind is rejected.
func New(e DocElement) (*DocElement, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("element id cannot be empty")
	}
	if err := ValidateKind(e.Kind); err != nil {
		return nil, err
	}
	if err := ValidateSourceFile(e.File); err != nil {
		return nil, err
	}

	if e.Kind == KindTask {
		if e.Status == "" {
			e.Status = StatusPending
		} else if err := ValidateStatus(e.Status); err != nil {
			return nil, err
		}
	} else if e.Status != "" {
		return nil, fmt.Errorf("status field only valid for Task kind, got %s", e.Kind)
	}

	if e.Refs == nil {
		e.Refs = []string{}
	}
	if e.Backlinks == nil {
		e.Backlinks = []string{}
	}

	return &e, nil
}

// IsTask reports whether the element is a task.
func (e *DocElement) IsTask() bool {
	return e.Kind == KindTask
}

// AddRef appends a referenced ID if it is not already present.
func (e *DocElement) AddRef(id string) {
	for _, r := range e.Refs {
		if r == id {
			return
		}
	}
	e.Refs = append(e.Refs, id)
}

// AddBacklink appends a referencing ID if it is not already present.
// Called by the index while maintaining the reverse reference graph.
func (e *DocElement) AddBacklink(id string) {
	for _, b := range e.Backlinks {
		if b == id {
			return
		}
	}
	e.Backlinks = append(e.Backlinks, id)
}

// MarshalJSON emits the flat serialized shape. The status field is
// included only for task elements.
func (e *DocElement) MarshalJSON() ([]byte, error) {
	type alias DocElement // avoid recursion
	a := alias(*e)
	if a.Kind != KindTask {
		a.Status = ""
	}
	return json.Marshal(a)
}

// FromJSON deserializes an element and re-validates it, so a decoded
// element honors the same invariants as a constructed one.
func FromJSON(data []byte) (*DocElement, error) {
	var e DocElement
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding element: %w", err)
	}
	return New(e)
}

// String shows the key element info for logs and debug output.
func (e *DocElement) String() string {
	if e.Status != "" {
		return fmt.Sprintf("DocElement[%s: %s (%s)]", e.ID, e.Title, e.Status)
	}
	return fmt.Sprintf("DocElement[%s: %s]", e.ID, e.Title)
}
