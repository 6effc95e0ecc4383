// Package body computes the span of lines and bytes each markdown
// heading owns, preserving the original formatting of the content.
//
// A heading's body runs from the line after the heading to the next
// heading at ANY level, or to the end of the document. Byte offsets are
// derived by summing UTF-8 line lengths plus one per newline, so they
// stay consistent on multi-byte input for both extraction and splicing.
package body

import (
	"fmt"
	"strings"

	"github.com/specdex/specdex/internal/ident"
)

// Boundary is a heading line and its position in the document.
type Boundary struct {
	LineNumber   int    // 0-based
	BytePosition int    // byte offset of the heading line start
	HeadingLevel int    // 1-6
	HeadingText  string // text without the # markers
	ElementID    string // extracted ID, or "" when the heading has none
}

// Range is the content owned by one heading.
//
// End coordinates are exclusive. A heading at the end of the document
// or directly followed by another heading yields an empty range with
// zero counts.
type Range struct {
	StartLine int // 0-based, inclusive
	EndLine   int // 0-based, exclusive
	StartByte int // inclusive
	EndByte   int // exclusive

	RawContent      string // newline-joined original lines, formatting preserved
	StrippedContent string // RawContent with leading/trailing whitespace removed

	LineCount int // lines in the body
	CharCount int // characters in StrippedContent
}

// Section pairs a heading with the range it owns.
type Section struct {
	Heading Boundary
	Body    Range
}

// Extractor computes body ranges for one document at a time. It is not
// safe for concurrent use; create one per goroutine.
type Extractor struct {
	text       string
	lines      []string
	boundaries []Boundary
}

// NewExtractor creates a body extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (x *Extractor) load(markdown string) {
	x.text = markdown
	x.lines = strings.Split(markdown, "\n")
	x.boundaries = x.findBoundaries()
}

func (x *Extractor) findBoundaries() []Boundary {
	var boundaries []Boundary
	bytePos := 0
	for lineNum, line := range x.lines {
		if level, text, ok := ident.ParseHeading(line); ok {
			elementID := ""
			if id, ok := ident.MatchHeading(text); ok {
				elementID = id.FullID
			}
			boundaries = append(boundaries, Boundary{
				LineNumber:   lineNum,
				BytePosition: bytePos,
				HeadingLevel: level,
				HeadingText:  text,
				ElementID:    elementID,
			})
		}
		bytePos += len(line) + 1 // +1 for the newline
	}
	return boundaries
}

// bytePositionOf returns the byte offset of the start of a line, or the
// total document length when the line number is past the end.
func (x *Extractor) bytePositionOf(lineNumber int) int {
	if lineNumber >= len(x.lines) {
		return len(x.text)
	}
	pos := 0
	for i := 0; i < lineNumber; i++ {
		pos += len(x.lines[i]) + 1
	}
	return pos
}

func (x *Extractor) rangeFor(headingIndex int) Range {
	heading := x.boundaries[headingIndex]

	startLine := heading.LineNumber + 1
	endLine := len(x.lines)
	if headingIndex+1 < len(x.boundaries) {
		endLine = x.boundaries[headingIndex+1].LineNumber
	}

	var bodyLines []string
	if startLine < len(x.lines) {
		bodyLines = x.lines[startLine:endLine]
	}

	raw := strings.Join(bodyLines, "\n")
	stripped := strings.TrimSpace(raw)

	return Range{
		StartLine:       startLine,
		EndLine:         endLine,
		StartByte:       x.bytePositionOf(startLine),
		EndByte:         x.bytePositionOf(endLine),
		RawContent:      raw,
		StrippedContent: stripped,
		LineCount:       len(bodyLines),
		CharCount:       len([]rune(stripped)),
	}
}

// ExtractAll computes the body range of every heading in the document,
// in document order.
func (x *Extractor) ExtractAll(markdown string) []Section {
	x.load(markdown)
	sections := make([]Section, 0, len(x.boundaries))
	for i, heading := range x.boundaries {
		sections = append(sections, Section{Heading: heading, Body: x.rangeFor(i)})
	}
	return sections
}

// ExtractAt computes the body range for the heading at the given
// 0-based line. Returns an error if no heading starts on that line.
func (x *Extractor) ExtractAt(markdown string, headingLine int) (Range, error) {
	x.load(markdown)
	for i, b := range x.boundaries {
		if b.LineNumber == headingLine {
			return x.rangeFor(i), nil
		}
	}
	return Range{}, fmt.Errorf("no heading found at line %d", headingLine)
}

// Update splices newContent in place of the body owned by the heading
// at headingLine and returns the reconstructed document. Everything
// outside the replaced range is preserved byte for byte.
func (x *Extractor) Update(markdown string, headingLine int, newContent string) (string, error) {
	r, err := x.ExtractAt(markdown, headingLine)
	if err != nil {
		return "", fmt.Errorf("updating body: %w", err)
	}

	lines := strings.Split(markdown, "\n")
	newLines := strings.Split(newContent, "\n") // "" splices a single empty line

	updated := make([]string, 0, len(lines)-r.LineCount+len(newLines))
	updated = append(updated, lines[:r.StartLine]...)
	updated = append(updated, newLines...)
	updated = append(updated, lines[r.EndLine:]...)

	return strings.Join(updated, "\n"), nil
}

// Validate checks a set of extracted sections for inconsistencies:
// inverted ranges, overlap between consecutive sections, and byte
// offsets that disagree with recomputation. Returns warning strings;
// an empty slice means the sections are consistent.
func (x *Extractor) Validate(sections []Section) []string {
	var warnings []string
	for i, s := range sections {
		name := s.Heading.ElementID
		if name == "" {
			name = fmt.Sprintf("heading at line %d", s.Heading.LineNumber)
		}

		if s.Body.StartLine < 0 || s.Body.EndLine < s.Body.StartLine {
			warnings = append(warnings, fmt.Sprintf("invalid line range for %s", name))
		}

		if i > 0 {
			prev := sections[i-1]
			if s.Body.StartLine < prev.Body.EndLine {
				warnings = append(warnings, fmt.Sprintf("overlapping ranges between %s and %s", prev.Heading.ElementID, name))
			}
		}

		if got := x.bytePositionOf(s.Body.StartLine); got != s.Body.StartByte {
			warnings = append(warnings, fmt.Sprintf("byte position mismatch for %s", name))
		}
	}
	return warnings
}

// ExtractAll is a convenience wrapper around a fresh Extractor.
func ExtractAll(markdown string) []Section {
	return NewExtractor().ExtractAll(markdown)
}

// ExtractAt is a convenience wrapper around a fresh Extractor.
func ExtractAt(markdown string, headingLine int) (Range, error) {
	return NewExtractor().ExtractAt(markdown, headingLine)
}
