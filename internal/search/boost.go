package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

// codeMarker is the rune sigil that tags reactive-state code in the
// corpus ($state, $derived, $effect...). Rows containing it are code
// bearing and get the code boost term.
const codeMarker = "$"

// Boost defaults applied when options are zero.
const (
	DefaultPrimaryFieldBoost = 2.0
	DefaultCodeBoost         = 1.5
	defaultBoostLimit        = 10
)

// boostPoolFactor widens the backend fetch so re-weighting can promote
// rows from beyond the first page.
const boostPoolFactor = 4

// BoostOptions controls the custom scoring layer.
type BoostOptions struct {
	Limit             int
	PrimaryFieldBoost float64
	CodeBoost         float64
}

// DefaultBoostOptions returns the standard boost configuration.
func DefaultBoostOptions() BoostOptions {
	return BoostOptions{
		Limit:             defaultBoostLimit,
		PrimaryFieldBoost: DefaultPrimaryFieldBoost,
		CodeBoost:         DefaultCodeBoost,
	}
}

func (o BoostOptions) withDefaults() BoostOptions {
	if o.Limit <= 0 {
		o.Limit = defaultBoostLimit
	}
	if o.PrimaryFieldBoost == 0 {
		o.PrimaryFieldBoost = DefaultPrimaryFieldBoost
	}
	if o.CodeBoost == 0 {
		o.CodeBoost = DefaultCodeBoost
	}
	return o
}

// BoostedResult is a search result re-weighted by the custom scorer.
// CustomScore keeps the native rank's sign convention: lower is better.
type BoostedResult struct {
	Result
	CustomScore float64 `json:"custom_score"`
}

// SearchWithBoost runs an expanded search and re-weights each row:
//
//	custom = rank * primaryFieldBoost   when the primary field matched
//	custom = rank * 1.0                 otherwise
//	custom += codeBoost                 when the content carries the sigil
//	custom += 1.0                       otherwise
//
// Results are ordered ascending by custom score. This is a heuristic
// layer on top of the base ranking, not a replacement for it.
func (e *Engine) SearchWithBoost(ctx context.Context, kind corpus.Kind, query string, opts BoostOptions) ([]BoostedResult, error) {
	opts = opts.withDefaults()

	x := e.dict.Expand(query)
	if x.Original == "" {
		return []BoostedResult{}, nil
	}

	hits, err := e.searchKind(ctx, kind, x, opts.Limit*boostPoolFactor)
	if err != nil {
		return nil, &QueryError{Expr: x.MatchExpr(), Err: err}
	}

	boosted := make([]BoostedResult, 0, len(hits))
	for _, h := range hits {
		score := h.Score
		if h.PrimaryScore < 0 {
			score *= opts.PrimaryFieldBoost
		}
		if hitContainsCode(h) {
			score += opts.CodeBoost
		} else {
			score += 1.0
		}

		boosted = append(boosted, BoostedResult{
			Result: Result{
				Fields:            h.Fields,
				HighlightedFields: h.Highlights,
				RelevanceScore:    -h.Score,
			},
			CustomScore: score,
		})
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].CustomScore < boosted[j].CustomScore
	})
	if len(boosted) > opts.Limit {
		boosted = boosted[:opts.Limit]
	}
	return boosted, nil
}

func hitContainsCode(h Hit) bool {
	for _, v := range h.Fields {
		if strings.Contains(v, codeMarker) {
			return true
		}
	}
	return false
}

// PrimaryField names the unique-key field that receives the primary boost
// for a kind.
func PrimaryField(kind corpus.Kind) (string, error) {
	switch kind {
	case corpus.KindKnowledge:
		return "question", nil
	case corpus.KindExamples:
		return "instruction", nil
	default:
		return "", fmt.Errorf("unknown corpus kind: %q", kind)
	}
}
