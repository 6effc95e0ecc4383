// Package ident implements the typed-identifier grammar used in
// markdown headings and body text.
//
// An ID is a marker followed by a suffix, e.g. "R:Purpose" or "T:0042".
// Markers are matched case-insensitively; the suffix keeps its original
// case. The concatenation marker+suffix is the element's canonical ID.
package ident

import (
	"strings"
	"unicode"

	"github.com/specdex/specdex/internal/docmodel"
)

// --- Marker enum ---

// Marker is the literal prefix token identifying an ID's category.
type Marker string

const (
	MarkerRequirement Marker = "R:"
	MarkerComponent   Marker = "C:"
	MarkerData        Marker = "D:"
	MarkerInterface   Marker = "I:"
	MarkerMethod      Marker = "M:"
	MarkerUI          Marker = "UI:"
	MarkerTask        Marker = "T:"
	MarkerTest        Marker = "TP:"
)

// markers lists all markers in match order. No marker is a prefix of
// another, so the order only matters for determinism.
var markers = []Marker{
	MarkerRequirement,
	MarkerComponent,
	MarkerData,
	MarkerInterface,
	MarkerMethod,
	MarkerUI,
	MarkerTask,
	MarkerTest,
}

// markerKinds maps each marker to the element kind it denotes.
var markerKinds = map[Marker]docmodel.Kind{
	MarkerRequirement: docmodel.KindRequirement,
	MarkerComponent:   docmodel.KindComponent,
	MarkerData:        docmodel.KindData,
	MarkerInterface:   docmodel.KindInterface,
	MarkerMethod:      docmodel.KindMethod,
	MarkerUI:          docmodel.KindUI,
	MarkerTask:        docmodel.KindTask,
	MarkerTest:        docmodel.KindTest,
}

// KindFor returns the element kind for a marker, or KindOther for an
// unrecognized one.
func KindFor(m Marker) docmodel.Kind {
	if k, ok := markerKinds[m]; ok {
		return k
	}
	return docmodel.KindOther
}

// KindForID derives the element kind from a full ID string such as
// "C:WorkspaceManager". IDs without a recognized marker map to KindOther.
func KindForID(id string) docmodel.Kind {
	i := strings.IndexByte(id, ':')
	if i < 0 {
		return docmodel.KindOther
	}
	m := Marker(strings.ToUpper(id[:i+1]))
	return KindFor(m)
}

// --- ID ---

// ID is a parsed marker+suffix pair.
type ID struct {
	FullID string // marker+suffix, original case preserved
	Marker Marker // canonical (upper-case) marker
	Suffix string
}

// allowsNumericStart reports whether the marker permits a suffix that
// starts with a digit. Tasks and tests do (T:0001, TP:0001); everything
// else must start with a letter.
func allowsNumericStart(m Marker) bool {
	return m == MarkerTask || m == MarkerTest
}

// isSuffixRune reports whether r may appear inside an ID suffix.
func isSuffixRune(r rune) bool {
	return r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ValidSuffix checks the suffix rule for a marker: non-empty, only
// letters/digits/underscore/hyphen, and a leading letter unless the
// marker is T: or TP:.
func ValidSuffix(m Marker, suffix string) bool {
	if suffix == "" {
		return false
	}
	for i, r := range suffix {
		if !isSuffixRune(r) {
			return false
		}
		if i == 0 {
			if r == '_' || r == '-' {
				return false
			}
			if unicode.IsDigit(r) && !allowsNumericStart(m) {
				return false
			}
		}
	}
	return true
}

// matchAt tries to match an ID token at byte offset pos of text.
// Returns the parsed ID and the end offset of the token. Trailing
// hyphens are not part of the token (a word boundary cannot sit after
// a hyphen).
func matchAt(text string, pos int) (ID, int, bool) {
	rest := text[pos:]
	for _, m := range markers {
		ms := string(m)
		if len(rest) < len(ms) || !strings.EqualFold(rest[:len(ms)], ms) {
			continue
		}
		sufStart := pos + len(ms)
		end := sufStart
		for end < len(text) && isSuffixRune(rune(text[end])) {
			end++
		}
		// Back off trailing hyphens so the token ends on a word rune.
		for end > sufStart && text[end-1] == '-' {
			end--
		}
		suffix := text[sufStart:end]
		if !ValidSuffix(m, suffix) {
			continue
		}
		return ID{
			FullID: text[pos:end],
			Marker: m,
			Suffix: suffix,
		}, end, true
	}
	return ID{}, 0, false
}

// MatchHeading matches an ID at the start of a heading's text (already
// stripped of leading # markers and whitespace). The match is rejected
// when the character after the token is alphanumeric or any symbol
// other than whitespace or '-', which keeps a shorter known ID from
// matching inside a longer unknown one (e.g. "C:Foobar2").
func MatchHeading(headingText string) (ID, bool) {
	id, end, ok := matchAt(headingText, 0)
	if !ok {
		return ID{}, false
	}
	if end < len(headingText) {
		next := []rune(headingText[end:])[0]
		if next != '-' && !unicode.IsSpace(next) {
			return ID{}, false
		}
	}
	return id, true
}

// InlineMatch is an ID token found in free text, with its byte offsets
// within the scanned line.
type InlineMatch struct {
	ID
	Start int
	End   int
}

// FindInline scans a single line for ID tokens delimited by word
// boundaries. Markers in inline matches are normalized to upper case in
// FullID so the same reference spelled differently collapses to one
// target.
func FindInline(line string) []InlineMatch {
	var found []InlineMatch
	for pos := 0; pos < len(line); {
		// A token must start at a word boundary.
		if pos > 0 && isWordRune(rune(line[pos-1])) {
			pos++
			continue
		}
		id, end, ok := matchAt(line, pos)
		if !ok {
			pos++
			continue
		}
		id.FullID = string(id.Marker) + id.Suffix
		found = append(found, InlineMatch{ID: id, Start: pos, End: end})
		pos = end
	}
	return found
}
