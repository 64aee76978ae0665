package search

import (
	"strings"
)

// Expansion is the result of expanding a raw query against the synonym
// dictionary. Terms always contains the (lowercased) original query first,
// so expansion can never narrow results relative to the literal query.
type Expansion struct {
	Original string
	Terms    []string
}

// Expand turns a raw query into a set of expanded search terms.
//
// The query is lowercased and split on whitespace. Each word is matched
// against dictionary terms by bidirectional substring containment: the
// term being a substring of the word ("effect" inside "$effect") or the
// word a substring of the term. For every match, each synonym is added
// both as a standalone term and as a copy of the whole query with the
// word substituted by the synonym. The final set is deduplicated with
// stable order.
func (d *Dictionary) Expand(query string) Expansion {
	q := strings.ToLower(strings.TrimSpace(query))

	terms := []string{q}
	seen := map[string]bool{q: true}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, word := range strings.Fields(q) {
		for _, term := range d.terms {
			if !strings.Contains(word, term) && !strings.Contains(term, word) {
				continue
			}
			for _, syn := range d.entries[term] {
				syn = strings.ToLower(syn)
				add(syn)
				add(strings.ReplaceAll(q, word, syn))
			}
		}
	}

	return Expansion{Original: q, Terms: terms}
}

// MatchExpr renders the expansion as a single FTS5 boolean expression:
// every term phrase-quoted (embedded quotes doubled) and OR-joined.
func (x Expansion) MatchExpr() string {
	quoted := make([]string, len(x.Terms))
	for i, t := range x.Terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}
