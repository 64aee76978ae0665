package search

import (
	"context"
	"errors"
	"testing"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

func TestBoostScoring(t *testing.T) {
	// Three hand-built hits exercise each scoring branch:
	//
	//   primary: rank -2.0, primary match, no code  -> -2.0*2.0 + 1.0 = -3.0
	//   code:    rank -3.0, no primary, $ content   -> -3.0     + 1.5 = -1.5
	//   plain:   rank -0.5, no primary, no code     -> -0.5     + 1.0 =  0.5
	hits := []Hit{
		{ID: 3, Fields: map[string]string{"question": "plain", "answer": "weak match"}, Score: -0.5},
		{ID: 2, Fields: map[string]string{"question": "code", "answer": "let c = $state(0)"}, Score: -3.0},
		{ID: 1, Fields: map[string]string{"question": "primary", "answer": "text"}, Score: -2.0, PrimaryScore: -1.0},
	}
	engine := New(&stubBackend{hits: hits})

	results, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "state", DefaultBoostOptions())
	if err != nil {
		t.Fatalf("SearchWithBoost: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []string{"primary", "code", "plain"}
	wantScores := []float64{-3.0, -1.5, 0.5}
	for i, r := range results {
		if r.Fields["question"] != wantOrder[i] {
			t.Errorf("position %d = %q, want %q", i, r.Fields["question"], wantOrder[i])
		}
		if r.CustomScore != wantScores[i] {
			t.Errorf("%s custom score = %v, want %v", r.Fields["question"], r.CustomScore, wantScores[i])
		}
	}
}

func TestBoostCustomFactors(t *testing.T) {
	hits := []Hit{
		{ID: 1, Fields: map[string]string{"question": "q", "answer": "a"}, Score: -1.0, PrimaryScore: -0.5},
	}
	engine := New(&stubBackend{hits: hits})

	results, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "state",
		BoostOptions{Limit: 5, PrimaryFieldBoost: 3.0, CodeBoost: 2.0})
	if err != nil {
		t.Fatalf("SearchWithBoost: %v", err)
	}
	// -1.0 * 3.0 + 1.0 (no code)
	if got := results[0].CustomScore; got != -2.0 {
		t.Errorf("custom score = %v, want -2.0", got)
	}
}

func TestBoostLimitTruncates(t *testing.T) {
	hits := make([]Hit, 0, 8)
	for i := 0; i < 8; i++ {
		hits = append(hits, Hit{
			ID:     int64(i + 1),
			Fields: map[string]string{"question": "q", "answer": "a"},
			Score:  -float64(i + 1),
		})
	}
	engine := New(&stubBackend{hits: hits})

	results, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "state",
		BoostOptions{Limit: 2})
	if err != nil {
		t.Fatalf("SearchWithBoost: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results with limit 2", len(results))
	}
}

func TestBoostEmptyQuery(t *testing.T) {
	engine := New(&stubBackend{hits: []Hit{{ID: 1, Score: -1}}})

	results, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "", DefaultBoostOptions())
	if err != nil {
		t.Fatalf("SearchWithBoost: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

func TestBoostPropagatesQueryError(t *testing.T) {
	engine := New(&stubBackend{err: errors.New("bad expression")})

	_, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "state", DefaultBoostOptions())
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *QueryError, got %v", err)
	}
}

func TestBoostOptionsDefaults(t *testing.T) {
	opts := BoostOptions{}.withDefaults()
	if opts.Limit != defaultBoostLimit {
		t.Errorf("Limit = %d, want %d", opts.Limit, defaultBoostLimit)
	}
	if opts.PrimaryFieldBoost != DefaultPrimaryFieldBoost {
		t.Errorf("PrimaryFieldBoost = %v, want %v", opts.PrimaryFieldBoost, DefaultPrimaryFieldBoost)
	}
	if opts.CodeBoost != DefaultCodeBoost {
		t.Errorf("CodeBoost = %v, want %v", opts.CodeBoost, DefaultCodeBoost)
	}
}

func TestBoostOverFTS(t *testing.T) {
	// End to end over the real index: order strictly ascending by custom
	// score, capped at the limit.
	engine, _ := newFTSEngine(t)

	results, err := engine.SearchWithBoost(context.Background(), corpus.KindKnowledge, "state",
		BoostOptions{Limit: 2})
	if err != nil {
		t.Fatalf("SearchWithBoost: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no boosted results for fixture query")
	}
	if len(results) > 2 {
		t.Errorf("limit not applied: %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].CustomScore > results[i].CustomScore {
			t.Errorf("results not ordered by ascending custom score at %d", i)
		}
	}
}

func TestPrimaryField(t *testing.T) {
	if f, err := PrimaryField(corpus.KindKnowledge); err != nil || f != "question" {
		t.Errorf("PrimaryField(knowledge) = %q, %v", f, err)
	}
	if f, err := PrimaryField(corpus.KindExamples); err != nil || f != "instruction" {
		t.Errorf("PrimaryField(examples) = %q, %v", f, err)
	}
	if _, err := PrimaryField(corpus.Kind("bogus")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
