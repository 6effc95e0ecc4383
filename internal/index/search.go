package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/specdex/specdex/internal/docmodel"
)

// Match is one ranked search result.
type Match struct {
	ElementID    string  `json:"element_id"`
	ElementTitle string  `json:"element_title"`
	MatchType    string  `json:"match_type"` // id_exact | id_partial | title_exact | title_partial
	Score        float64 `json:"match_score"`
	MatchedText  string  `json:"matched_text"`
}

// Search ranks elements against a query. Tiers, highest first: exact ID
// (1.0), ID prefix (len(query)/len(key) x 0.9), exact title (0.76),
// title word coverage (x 0.8). An element matched at a higher tier is
// not re-added at a lower one. A blank query returns no results.
func (ix *Index) Search(query string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Match{}
	}

	queryNorm := normalizeForSearch(query)
	matched := make(map[string]bool)
	var matches []Match

	// Tier 1: exact ID.
	if id, ok := ix.idKeys[queryNorm]; ok {
		if e := ix.elements[id]; e != nil {
			matched[id] = true
			matches = append(matches, Match{
				ElementID:    id,
				ElementTitle: e.Title,
				MatchType:    "id_exact",
				Score:        1.0,
				MatchedText:  id,
			})
		}
	}

	// Tier 2: partial ID. The shortest containing key gives the element
	// its best score, so keep only that one per element.
	best := make(map[string]float64)
	for partial, ids := range ix.partialIDs {
		if !strings.Contains(partial, queryNorm) || partial == queryNorm {
			continue
		}
		score := float64(len(queryNorm)) / float64(len(partial)) * 0.9
		for id := range ids {
			if matched[id] || ix.elements[id] == nil {
				continue
			}
			if score > best[id] {
				best[id] = score
			}
		}
	}
	for id, score := range best {
		e := ix.elements[id]
		matched[id] = true
		matches = append(matches, Match{
			ElementID:    id,
			ElementTitle: e.Title,
			MatchType:    "id_partial",
			Score:        score,
			MatchedText:  id,
		})
	}

	// Tiers 3 and 4: title matches via the word index.
	queryWords := strings.Fields(queryNorm)
	for _, word := range queryWords {
		for id := range ix.titleWords[word] {
			e := ix.elements[id]
			if matched[id] || e == nil {
				continue
			}
			matched[id] = true

			titleNorm := normalizeForSearch(e.Title)
			if titleNorm == queryNorm {
				matches = append(matches, Match{
					ElementID:    id,
					ElementTitle: e.Title,
					MatchType:    "title_exact",
					Score:        0.95 * 0.8,
					MatchedText:  e.Title,
				})
				continue
			}

			titleWords := strings.Fields(titleNorm)
			overlap := 0
			for _, qw := range queryWords {
				for _, tw := range titleWords {
					if qw == tw {
						overlap++
						break
					}
				}
			}
			denom := len(queryWords)
			if len(titleWords) > denom {
				denom = len(titleWords)
			}
			matches = append(matches, Match{
				ElementID:    id,
				ElementTitle: e.Title,
				MatchType:    "title_partial",
				Score:        float64(overlap) / float64(denom) * 0.8,
				MatchedText:  e.Title,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ElementID < matches[j].ElementID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// --- Search structure maintenance ---

// minPrefixLen is the shortest ID prefix stored for starts-with search.
const minPrefixLen = 2

func (ix *Index) addToSearch(e *docmodel.DocElement) {
	ix.idKeys[normalizeForSearch(e.ID)] = e.ID

	for i := minPrefixLen; i <= len(e.ID); i++ {
		partial := strings.ToLower(e.ID[:i])
		if ix.partialIDs[partial] == nil {
			ix.partialIDs[partial] = make(map[string]bool)
		}
		ix.partialIDs[partial][e.ID] = true
	}

	for _, word := range strings.Fields(normalizeForSearch(e.Title)) {
		if ix.titleWords[word] == nil {
			ix.titleWords[word] = make(map[string]bool)
		}
		ix.titleWords[word][e.ID] = true
	}
}

func (ix *Index) removeFromSearch(e *docmodel.DocElement) {
	delete(ix.idKeys, normalizeForSearch(e.ID))

	for i := minPrefixLen; i <= len(e.ID); i++ {
		partial := strings.ToLower(e.ID[:i])
		if set := ix.partialIDs[partial]; set != nil {
			delete(set, e.ID)
			if len(set) == 0 {
				delete(ix.partialIDs, partial)
			}
		}
	}

	for _, word := range strings.Fields(normalizeForSearch(e.Title)) {
		if set := ix.titleWords[word]; set != nil {
			delete(set, e.ID)
			if len(set) == 0 {
				delete(ix.titleWords, word)
			}
		}
	}
}

// normalizeForSearch lowercases and keeps only word characters, spaces,
// and colons (so IDs survive intact); everything else becomes a space
// and whitespace runs collapse.
func normalizeForSearch(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
