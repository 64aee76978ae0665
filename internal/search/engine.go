// Package search implements query expansion, ranked lexical search, and
// boost scoring over the sveltekb corpus.
//
// The Engine composes a synonym Dictionary, a Backend (the durable FTS
// store or the in-memory fuzzy matcher), and the scoring layer. Backends
// share one capability: ranked lexical search over a typed corpus.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

// Hit is one backend match. Score follows the index rank convention:
// negative, lower is better. PrimaryScore is negative exactly when the
// item's primary field (question or instruction) itself matched; backends
// without per-field attribution leave it zero.
type Hit struct {
	ID           int64
	Kind         corpus.Kind
	Fields       map[string]string
	Highlights   map[string]string
	Score        float64
	PrimaryScore float64
}

// Backend is a ranked lexical search over a typed corpus. Two
// implementations exist: the SQLite FTS5 store and the in-memory fuzzy
// matcher, selected by configuration.
type Backend interface {
	SearchKnowledge(ctx context.Context, x Expansion, limit int) ([]Hit, error)
	SearchExamples(ctx context.Context, x Expansion, limit int) ([]Hit, error)
}

// QueryError reports a malformed expanded-query expression. Searches
// degrade to empty result sets instead of propagating it.
type QueryError struct {
	Expr string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("malformed query expression %q: %v", e.Expr, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Result is one scored row in a search response.
type Result struct {
	Fields            map[string]string `json:"fields"`
	HighlightedFields map[string]string `json:"highlighted_fields,omitempty"`
	RelevanceScore    float64           `json:"relevance_score"`
}

// Response is the search result envelope returned to callers.
type Response struct {
	Query         string   `json:"query"`
	ExpandedQuery string   `json:"expanded_query"`
	TotalResults  int      `json:"total_results"`
	Results       []Result `json:"results"`
	Status        string   `json:"status,omitempty"`
}

// Engine runs expanded queries against a backend and scores the results.
type Engine struct {
	dict    *Dictionary
	backend Backend
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDictionary replaces the built-in synonym dictionary.
func WithDictionary(d *Dictionary) Option {
	return func(e *Engine) {
		if d != nil {
			e.dict = d
		}
	}
}

// New creates a search engine over the given backend.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		dict:    NewDictionary(),
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dictionary returns the engine's synonym dictionary.
func (e *Engine) Dictionary() *Dictionary {
	return e.dict
}

// Search expands the query, runs it against the backend, and returns
// scored rows with highlights. The public relevance score is the negated
// backend rank, so higher is always more relevant.
//
// Failures degrade: a malformed expression or backend error yields an
// empty result set with an explanatory status, never a crash.
func (e *Engine) Search(ctx context.Context, kind corpus.Kind, query string, limit int) (*Response, error) {
	x := e.dict.Expand(query)
	resp := &Response{
		Query:         query,
		ExpandedQuery: x.MatchExpr(),
		Results:       []Result{},
	}

	if x.Original == "" {
		resp.Status = "empty query"
		return resp, nil
	}

	hits, err := e.searchKind(ctx, kind, x, limit)
	if err != nil {
		qerr := &QueryError{Expr: x.MatchExpr(), Err: err}
		e.logger.Warn("search degraded to empty results", "kind", kind, "query", query, "err", qerr)
		resp.Status = qerr.Error()
		return resp, nil
	}

	for _, h := range hits {
		resp.Results = append(resp.Results, Result{
			Fields:            h.Fields,
			HighlightedFields: h.Highlights,
			RelevanceScore:    -h.Score,
		})
	}
	resp.TotalResults = len(resp.Results)
	return resp, nil
}

func (e *Engine) searchKind(ctx context.Context, kind corpus.Kind, x Expansion, limit int) ([]Hit, error) {
	switch kind {
	case corpus.KindKnowledge:
		return e.backend.SearchKnowledge(ctx, x, limit)
	case corpus.KindExamples:
		return e.backend.SearchExamples(ctx, x, limit)
	default:
		return nil, fmt.Errorf("unknown corpus kind: %q", kind)
	}
}
