// Package parser assembles markdown text into document elements.
//
// It combines heading/ID extraction, body-range extraction, and
// reference detection into fully populated DocElements. One malformed
// heading never aborts a file: the failure is logged and that single
// element is skipped.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/body"
	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/ident"
	"github.com/specdex/specdex/internal/refs"
)

// fileByStem maps an artifact file stem to its classification.
var fileByStem = map[string]docmodel.SourceFile{
	"conventions":      docmodel.FileConventions,
	"software-design":  docmodel.FileSoftwareDesign,
	"development-plan": docmodel.FileDevelopmentPlan,
	"test-plan":        docmodel.FileTestPlan,
}

// FileForPath classifies a markdown path by its file stem. Unrecognized
// names fall back to the software-design classification.
func FileForPath(path string) docmodel.SourceFile {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if f, ok := fileByStem[strings.ToLower(stem)]; ok {
		return f
	}
	return docmodel.FileSoftwareDesign
}

// Parser assembles DocElements for one source-file classification.
type Parser struct {
	file docmodel.SourceFile
	log  zerolog.Logger
}

// New creates a parser. The logger is used only for per-heading
// assembly failures; pass zerolog.Nop() to silence them.
func New(file docmodel.SourceFile, log zerolog.Logger) *Parser {
	return &Parser{file: file, log: log}
}

// NewForPath creates a parser whose file classification is derived from
// the markdown file's name.
func NewForPath(path string, log zerolog.Logger) *Parser {
	return New(FileForPath(path), log)
}

// Parse assembles the ordered list of elements for markdown content.
// Headings without an ID still produce elements (kind Other, synthetic
// placeholder ID), so parsing a document never fails outright.
func (p *Parser) Parse(markdown string) []*docmodel.DocElement {
	sections := body.ExtractAll(markdown)

	elements := make([]*docmodel.DocElement, 0, len(sections))
	for _, s := range sections {
		e, err := p.buildElement(s)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("heading", s.Heading.HeadingText).
				Int("line", s.Heading.LineNumber).
				Msg("skipping element")
			continue
		}
		elements = append(elements, e)
	}
	return elements
}

func (p *Parser) buildElement(s body.Section) (*docmodel.DocElement, error) {
	// Re-run ID extraction on the heading text; the boundary's ElementID
	// is only a best-effort hint.
	var elementID string
	id, hasID := ident.MatchHeading(s.Heading.HeadingText)
	if hasID {
		elementID = id.FullID
	} else {
		elementID = fmt.Sprintf("NoID_Line%d", s.Heading.LineNumber)
	}

	kind := docmodel.KindOther
	if hasID {
		kind = ident.KindFor(id.Marker)
	}

	bodyText := s.Body.StrippedContent
	references := refs.Detect(bodyText)

	title := extractTitle(s.Heading.HeadingText, hasID, elementID)

	var status docmodel.Status
	if kind == docmodel.KindTask {
		status = taskStatus(bodyText)
	}

	return docmodel.New(docmodel.DocElement{
		ID:           elementID,
		Kind:         kind,
		Title:        title,
		File:         p.file,
		HeadingLevel: s.Heading.HeadingLevel,
		Anchor:       MakeAnchor(title),
		BodyMarkdown: bodyText,
		Refs:         refs.TargetIDs(references),
		Status:       status,
	})
}

// extractTitle strips a leading "ID - " pattern from the heading text,
// but only when a valid ID was actually matched at the start. Headings
// whose ID is not followed by a dash keep their full text as title.
func extractTitle(headingText string, hasID bool, elementID string) string {
	if !hasID {
		return strings.TrimSpace(headingText)
	}
	rest := strings.TrimSpace(headingText[len(elementID):])
	if after, ok := strings.CutPrefix(rest, "-"); ok {
		if title := strings.TrimSpace(after); title != "" {
			return title
		}
	}
	return strings.TrimSpace(headingText)
}

// MakeAnchor derives a URL-safe anchor: lowercase, non-word characters
// stripped, whitespace runs collapsed to single hyphens, hyphen edges
// trimmed.
func MakeAnchor(title string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// statusKeywords maps body keywords to task status, checked in order:
// completion words win over progress words.
var statusKeywords = []struct {
	words  []string
	status docmodel.Status
}{
	{[]string{"completed", "done", "finished"}, docmodel.StatusCompleted},
	{[]string{"in progress", "working", "implementing"}, docmodel.StatusInProgress},
}

// taskStatus scans body content for status keywords. With no keywords
// present the task is pending.
func taskStatus(bodyText string) docmodel.Status {
	lower := strings.ToLower(bodyText)
	for _, group := range statusKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.status
			}
		}
	}
	return docmodel.StatusPending
}

// Validate checks assembled elements for structural problems: duplicate
// IDs, empty titles, out-of-range heading levels, and task/status
// inconsistency. Returns human-readable warnings and never fails.
func Validate(elements []*docmodel.DocElement) []string {
	var warnings []string
	seen := make(map[string]bool)

	for _, e := range elements {
		if seen[e.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate ID found: %s", e.ID))
		}
		seen[e.ID] = true

		if strings.TrimSpace(e.Title) == "" {
			warnings = append(warnings, fmt.Sprintf("empty title for element: %s", e.ID))
		}
		if e.HeadingLevel < 1 || e.HeadingLevel > 6 {
			warnings = append(warnings, fmt.Sprintf("invalid heading level %d for: %s", e.HeadingLevel, e.ID))
		}
		if e.Kind == docmodel.KindTask && e.Status == "" {
			warnings = append(warnings, fmt.Sprintf("task missing status: %s", e.ID))
		} else if e.Kind != docmodel.KindTask && e.Status != "" {
			warnings = append(warnings, fmt.Sprintf("non-task has status: %s", e.ID))
		}
	}
	return warnings
}

// Statistics summarizes a batch of assembled elements.
type Statistics struct {
	TotalElements       int            `json:"total_elements"`
	ByKind              map[string]int `json:"by_kind"`
	ByHeadingLevel      map[string]int `json:"by_heading_level"`
	TotalReferences     int            `json:"total_references"`
	AverageReferences   float64        `json:"average_references_per_element"`
	ElementsWithBody    int            `json:"elements_with_content"`
	ElementsWithoutBody int            `json:"elements_without_content"`
	UniqueIDs           int            `json:"unique_ids"`
}

// Summarize computes derived statistics over elements. Purely
// observational; no side effects.
func Summarize(elements []*docmodel.DocElement) Statistics {
	stats := Statistics{
		TotalElements:  len(elements),
		ByKind:         make(map[string]int),
		ByHeadingLevel: make(map[string]int),
	}
	if len(elements) == 0 {
		return stats
	}

	unique := make(map[string]bool)
	for _, e := range elements {
		stats.ByKind[string(e.Kind)]++
		stats.ByHeadingLevel[fmt.Sprintf("h%d", e.HeadingLevel)]++
		stats.TotalReferences += len(e.Refs)
		if strings.TrimSpace(e.BodyMarkdown) != "" {
			stats.ElementsWithBody++
		} else {
			stats.ElementsWithoutBody++
		}
		unique[e.ID] = true
	}
	stats.UniqueIDs = len(unique)

	avg := float64(stats.TotalReferences) / float64(len(elements))
	stats.AverageReferences = float64(int(avg*100+0.5)) / 100 // two decimals

	return stats
}
