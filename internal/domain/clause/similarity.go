package clause

import (
	"strings"
	"unicode"
)

// Tokenize lowercases the text and splits it into word tokens, dropping
// punctuation and single-character noise. The token set, not the sequence,
// is what similarity scoring operates on.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// Jaccard computes the Jaccard similarity of two token sets:
// |A ∩ B| / |A ∪ B|. Two empty sets score zero.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate over the smaller set
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Score computes the similarity between a query and a clause, matching
// against the combined title and body text.
func Score(query string, c *Clause) float64 {
	return Jaccard(Tokenize(query), Tokenize(c.Title+" "+c.Body))
}

// Match pairs a clause with its similarity score for ranked search results
type Match struct {
	Clause Clause  `json:"clause"`
	Score  float64 `json:"score"`
}

// Rank scores every clause against the query and returns matches at or above
// the threshold, ordered by descending score, capped at limit.
func Rank(query string, clauses []Clause, threshold float64, limit int) []Match {
	queryTokens := Tokenize(query)
	matches := make([]Match, 0, len(clauses))
	for i := range clauses {
		score := Jaccard(queryTokens, Tokenize(clauses[i].Title+" "+clauses[i].Body))
		if score >= threshold && score > 0 {
			matches = append(matches, Match{Clause: clauses[i], Score: score})
		}
	}
	// Insertion sort keeps the common small result sets cheap and stable
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
