package search

import (
	"context"

	"github.com/sveltekb/sveltekb/internal/corpus"
	"github.com/sveltekb/sveltekb/internal/store"
)

// FTSBackend adapts the SQLite FTS5 store to the Backend interface.
type FTSBackend struct {
	store *store.Store
}

// NewFTSBackend wraps an open store.
func NewFTSBackend(s *store.Store) *FTSBackend {
	return &FTSBackend{store: s}
}

var _ Backend = (*FTSBackend)(nil)

// SearchKnowledge runs the OR-ed phrase expression against the knowledge
// index.
func (b *FTSBackend) SearchKnowledge(ctx context.Context, x Expansion, limit int) ([]Hit, error) {
	matches, err := b.store.SearchKnowledge(ctx, x.MatchExpr(), limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{
			ID:   m.Item.ID,
			Kind: corpus.KindKnowledge,
			Fields: map[string]string{
				"question": m.Item.Question,
				"answer":   m.Item.Answer,
			},
			Highlights: map[string]string{
				"question": m.HighlightedQuestion,
				"answer":   m.HighlightedAnswer,
			},
			Score:        m.Rank,
			PrimaryScore: m.PrimaryRank,
		})
	}
	return hits, nil
}

// SearchExamples runs the OR-ed phrase expression against the examples
// index.
func (b *FTSBackend) SearchExamples(ctx context.Context, x Expansion, limit int) ([]Hit, error) {
	matches, err := b.store.SearchExamples(ctx, x.MatchExpr(), limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{
			ID:   m.Item.ID,
			Kind: corpus.KindExamples,
			Fields: map[string]string{
				"instruction": m.Item.Instruction,
				"input":       m.Item.Input,
				"output":      m.Item.Output,
			},
			Highlights: map[string]string{
				"instruction": m.HighlightedInstruction,
				"input":       m.HighlightedInput,
				"output":      m.HighlightedOutput,
			},
			Score:        m.Rank,
			PrimaryScore: m.PrimaryRank,
		})
	}
	return hits, nil
}
