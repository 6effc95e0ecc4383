// Package refs detects references to typed identifiers inside markdown
// body text.
//
// Two kinds exist: inline references (an ID token anywhere in free
// text) and explicit references (ID tokens inside a dedicated
// "References:" list section). Explicit references are collected first
// and win over inline mentions of the same target when deduplicating.
package refs

import (
	"strings"
	"unicode/utf8"

	"github.com/specdex/specdex/internal/ident"
)

// Type discriminates how a reference was found.
type Type string

const (
	TypeInline   Type = "inline"
	TypeExplicit Type = "explicit"
)

// contextRadius is how many characters of surrounding text an inline
// reference carries on each side.
const contextRadius = 20

// Reference is a detected pointer to another element.
type Reference struct {
	TargetID       string `json:"target_id"`
	Type           Type   `json:"type"`
	Context        string `json:"context"`
	LineNumber     int    `json:"line_number"`      // 0-based within the scanned body
	PositionInLine int    `json:"position_in_line"` // 0-based character offset
}

// Detect scans body text for explicit and inline references and returns
// them deduplicated by target ID. Explicit references come first, so an
// explicit reference always shadows an inline mention of the same
// target; within each group discovery order is preserved.
func Detect(bodyText string) []Reference {
	all := findExplicit(bodyText)
	all = append(all, findInline(bodyText)...)

	seen := make(map[string]bool)
	unique := make([]Reference, 0, len(all))
	for _, r := range all {
		if seen[r.TargetID] {
			continue
		}
		seen[r.TargetID] = true
		unique = append(unique, r)
	}
	return unique
}

// findInline locates ID tokens line by line and attaches a trimmed
// window of surrounding text as context.
func findInline(bodyText string) []Reference {
	var refs []Reference
	for lineNum, line := range strings.Split(bodyText, "\n") {
		for _, m := range ident.FindInline(line) {
			start := m.Start - contextRadius
			if start < 0 {
				start = 0
			}
			for start > 0 && !utf8.RuneStart(line[start]) {
				start--
			}
			end := m.End + contextRadius
			if end > len(line) {
				end = len(line)
			}
			for end < len(line) && !utf8.RuneStart(line[end]) {
				end++
			}
			refs = append(refs, Reference{
				TargetID:       m.FullID,
				Type:           TypeInline,
				Context:        strings.TrimSpace(line[start:end]),
				LineNumber:     lineNum,
				PositionInLine: m.Start,
			})
		}
	}
	return refs
}

// isReferencesHeading reports whether a line is a heading whose entire
// text is "References" or "Reference", optional trailing colon, case
// insensitive.
func isReferencesHeading(line string) bool {
	_, text, ok := ident.ParseHeading(line)
	if !ok {
		return false
	}
	text = strings.TrimSuffix(text, ":")
	return strings.EqualFold(text, "References") || strings.EqualFold(text, "Reference")
}

// findExplicit locates "References:" sections and collects every ID
// token in their list items. The section ends at the next heading, or
// at a blank line directly followed by a heading.
func findExplicit(bodyText string) []Reference {
	var refs []Reference
	lines := strings.Split(bodyText, "\n")

	for lineNum, line := range lines {
		if !isReferencesHeading(line) {
			continue
		}
		refs = append(refs, parseListSection(lines, lineNum+1)...)
	}
	return refs
}

func parseListSection(lines []string, start int) []Reference {
	var refs []Reference
	for lineNum := start; lineNum < len(lines); lineNum++ {
		line := lines[lineNum]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			break
		}
		if trimmed == "" && lineNum+1 < len(lines) &&
			strings.HasPrefix(strings.TrimSpace(lines[lineNum+1]), "#") {
			break
		}

		item, ok := listItemText(trimmed)
		if !ok {
			continue
		}
		for _, m := range ident.FindInline(item) {
			refs = append(refs, Reference{
				TargetID:       m.FullID,
				Type:           TypeExplicit,
				Context:        item,
				LineNumber:     lineNum,
				PositionInLine: m.Start + indentWidth(line),
			})
		}
	}
	return refs
}

// listItemText strips a "- " or "* " list prefix, returning the item
// body and whether the line was a list item at all.
func listItemText(trimmed string) (string, bool) {
	if len(trimmed) < 2 || (trimmed[0] != '-' && trimmed[0] != '*') {
		return "", false
	}
	if trimmed[1] != ' ' && trimmed[1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(trimmed[2:]), true
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// TargetIDs extracts the unique target IDs from a reference list,
// preserving first-occurrence order.
func TargetIDs(references []Reference) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range references {
		if !seen[r.TargetID] {
			seen[r.TargetID] = true
			ids = append(ids, r.TargetID)
		}
	}
	return ids
}

// ValidationResult partitions reference targets into those present in a
// known-ID set and those missing from it.
type ValidationResult struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
}

// Validate checks each reference target against knownIDs.
func Validate(references []Reference, knownIDs map[string]bool) ValidationResult {
	result := ValidationResult{Valid: []string{}, Invalid: []string{}}
	for _, r := range references {
		if knownIDs[r.TargetID] {
			result.Valid = append(result.Valid, r.TargetID)
		} else {
			result.Invalid = append(result.Invalid, r.TargetID)
		}
	}
	return result
}

// FindBroken returns the references whose target is absent from
// knownIDs. An empty knownIDs set means nothing can be validated and
// nothing is reported.
func FindBroken(references []Reference, knownIDs map[string]bool) []Reference {
	if len(knownIDs) == 0 {
		return nil
	}
	var broken []Reference
	for _, r := range references {
		if !knownIDs[r.TargetID] {
			broken = append(broken, r)
		}
	}
	return broken
}

// GroupByTarget buckets references by their target ID.
func GroupByTarget(references []Reference) map[string][]Reference {
	grouped := make(map[string][]Reference)
	for _, r := range references {
		grouped[r.TargetID] = append(grouped[r.TargetID], r)
	}
	return grouped
}

// Statistics summarizes a batch of detected references.
type Statistics struct {
	Total         int            `json:"total_references"`
	UniqueTargets int            `json:"unique_targets"`
	Inline        int            `json:"inline_references"`
	Explicit      int            `json:"explicit_references"`
	ByMarker      map[string]int `json:"by_marker"`
}

// Summarize computes counts by type and by target marker.
func Summarize(references []Reference) Statistics {
	stats := Statistics{ByMarker: make(map[string]int)}
	targets := make(map[string]bool)
	for _, r := range references {
		stats.Total++
		targets[r.TargetID] = true
		switch r.Type {
		case TypeInline:
			stats.Inline++
		case TypeExplicit:
			stats.Explicit++
		}
		if i := strings.IndexByte(r.TargetID, ':'); i >= 0 {
			stats.ByMarker[r.TargetID[:i+1]]++
		}
	}
	stats.UniqueTargets = len(targets)
	return stats
}

// maxPatternExamples caps how many context strings each pattern bucket
// keeps.
const maxPatternExamples = 3

// ClassifyPatterns sorts reference contexts into relationship buckets
// by keyword containment. "call" is checked before "use" so "calls ...
// using" lands in calls, and only the first matching bucket applies.
func ClassifyPatterns(references []Reference) map[string][]string {
	patterns := map[string][]string{}

	add := func(bucket, context string) {
		if len(patterns[bucket]) < maxPatternExamples {
			patterns[bucket] = append(patterns[bucket], context)
		}
	}

	for _, r := range references {
		c := strings.ToLower(r.Context)
		switch {
		case strings.Contains(c, "implement"):
			add("implements", r.Context)
		case strings.Contains(c, "call"):
			add("calls", r.Context)
		case strings.Contains(c, "use") || strings.Contains(c, "using"):
			add("uses", r.Context)
		case strings.Contains(c, "extend"):
			add("extends", r.Context)
		case strings.Contains(c, "reference"):
			add("references", r.Context)
		case strings.Contains(c, "see"):
			add("see", r.Context)
		case strings.Contains(c, "based"):
			add("based_on", r.Context)
		default:
			add("other", r.Context)
		}
	}
	return patterns
}
