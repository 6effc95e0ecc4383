// Package diffutil produces unified diffs of document edits so tool
// callers can review a body update before trusting it.
package diffutil

import (
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// defaultContext is the number of context lines around each hunk.
const defaultContext = 3

// Unified renders a classic unified patch (---/+++ headers, @@ hunks)
// for the change from old to new content. Identical inputs return an
// empty string.
func Unified(name, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(oldContent),
		B:        splitLinesKeepNL(newContent),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  defaultContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

// splitLinesKeepNL splits into lines keeping the trailing newline on
// each element, which difflib needs for clean hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
