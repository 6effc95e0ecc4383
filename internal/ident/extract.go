package ident

import (
	"fmt"
	"strings"
)

// --- Heading parsing ---

// ParseHeading recognizes an ATX heading line (#..###### followed by
// whitespace and text). Setext headings are not recognized. Returns the
// heading level and the trimmed heading text.
func ParseHeading(line string) (level int, text string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	// At least one whitespace character, then at least one more character.
	if len(rest) < 2 || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

// --- Extracted heading IDs ---

// HeadingID is an ID extracted from a markdown heading, with its
// position in the source document.
type HeadingID struct {
	ID
	HeadingLevel int    // 1-6
	HeadingText  string // heading text without the # markers
	LineNumber   int    // 0-based line in the source
	RawLine      string // original markdown line
}

// --- Uniqueness tracking ---

// DuplicateError reports an ID that was seen more than once while
// uniqueness enforcement was requested.
type DuplicateError struct {
	ID   string
	Line int // 0-based line of the duplicate occurrence
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate ID found: %s at line %d", e.ID, e.Line+1)
}

// Tracker records IDs seen during one parsing pass. It is caller-owned
// and scoped to a single document or project scan, never shared across
// independent parses.
type Tracker struct {
	seen map[string]int // id -> 0-based line of first occurrence
}

// NewTracker creates an empty uniqueness tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]int)}
}

// Register records an ID at the given 0-based line. Returns a
// DuplicateError if the ID was already registered.
func (t *Tracker) Register(id string, line int) error {
	if _, dup := t.seen[id]; dup {
		return &DuplicateError{ID: id, Line: line}
	}
	t.seen[id] = line
	return nil
}

// Seen reports whether the ID has been registered.
func (t *Tracker) Seen(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Reset discards all registered IDs so the tracker can be reused for an
// independent document.
func (t *Tracker) Reset() {
	t.seen = make(map[string]int)
}

// --- Document extraction ---

// ExtractAll scans markdown text and returns the IDs found at the start
// of heading lines. When tracker is non-nil, uniqueness is enforced and
// the first recurrence of an ID aborts the scan with a DuplicateError.
// A nil tracker gives best-effort extraction with duplicates tolerated,
// which is what reference scanning across files wants.
func ExtractAll(markdown string, tracker *Tracker) ([]HeadingID, error) {
	var out []HeadingID
	for lineNum, line := range strings.Split(markdown, "\n") {
		level, text, ok := ParseHeading(line)
		if !ok {
			continue
		}
		id, ok := MatchHeading(text)
		if !ok {
			continue
		}
		if tracker != nil {
			if err := tracker.Register(id.FullID, lineNum); err != nil {
				return nil, err
			}
		}
		out = append(out, HeadingID{
			ID:           id,
			HeadingLevel: level,
			HeadingText:  text,
			LineNumber:   lineNum,
			RawLine:      line,
		})
	}
	return out, nil
}

// --- Cross-file uniqueness audit ---

// NamedDoc pairs an already-loaded document with the name it is known
// by (typically its file path).
type NamedDoc struct {
	Name    string
	Content string
}

// CrossFileDuplicates extracts IDs from each document without per-file
// enforcement and reports every ID that appears in more than one place.
// The result maps the duplicated ID to the documents carrying it, first
// occurrence first.
func CrossFileDuplicates(docs []NamedDoc) map[string][]string {
	duplicates := make(map[string][]string)
	firstSeen := make(map[string]string)

	for _, doc := range docs {
		ids, _ := ExtractAll(doc.Content, nil) // nil tracker never errors
		for _, id := range ids {
			if origin, dup := firstSeen[id.FullID]; dup {
				if _, recorded := duplicates[id.FullID]; !recorded {
					duplicates[id.FullID] = []string{origin}
				}
				duplicates[id.FullID] = append(duplicates[id.FullID], doc.Name)
			} else {
				firstSeen[id.FullID] = doc.Name
			}
		}
	}
	return duplicates
}

// --- Statistics ---

// Statistics summarizes a batch of extracted IDs.
type Statistics struct {
	Total          int            `json:"total_ids"`
	ByMarker       map[string]int `json:"by_marker"`
	ByHeadingLevel map[string]int `json:"by_heading_level"` // "h1".."h6"
}

// Summarize counts extracted IDs by marker and heading level.
func Summarize(ids []HeadingID) Statistics {
	stats := Statistics{
		Total:          len(ids),
		ByMarker:       make(map[string]int),
		ByHeadingLevel: make(map[string]int),
	}
	for _, id := range ids {
		stats.ByMarker[string(id.Marker)]++
		stats.ByHeadingLevel[fmt.Sprintf("h%d", id.HeadingLevel)]++
	}
	return stats
}
