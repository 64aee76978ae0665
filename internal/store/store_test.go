package store

import (
	"context"
	"testing"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testKnowledge and testExamples are the shared corpus fixture.
func testKnowledge() []corpus.KnowledgeRecord {
	return []corpus.KnowledgeRecord{
		{
			Question: "How do you declare reactive state in Svelte 5?",
			Answer:   "Use the $state rune: let count = $state(0).",
		},
		{
			Question: "What is $derived for?",
			Answer:   "It computes values from other reactive state.",
		},
		{
			Question: "How do components receive props?",
			Answer:   "Declare them with the $props rune.",
		},
	}
}

func testExamples() []corpus.ExampleRecord {
	return []corpus.ExampleRecord{
		{
			Instruction: "Create a counter component",
			Input:       "A button that increments a number",
			Output:      "let count = $state(0)",
		},
		{
			Instruction: "Derive a doubled value",
			Input:       "an existing count",
			Output:      "let doubled = $derived(count * 2)",
		},
	}
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	if _, err := s.Sync(context.Background(), testKnowledge(), testExamples(), "fixture"); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"knowledge", "examples", "knowledge_fts", "examples_fts", "sync_meta", "synonyms"} {
		var count int
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE name = ?", name,
		).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master: %v", err)
		}
		if count == 0 {
			t.Errorf("expected object %q to exist", name)
		}
	}
}

func TestOpenIsIdempotentOnSchema(t *testing.T) {
	// migrate runs on every Open; re-running against an existing file
	// must not fail or clobber rows. Shared-cache memory db is not
	// available per connection, so exercise migrate directly.
	s := newTestStore(t)
	seedStore(t, s)

	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.KnowledgeCount != 3 {
		t.Errorf("knowledge count = %d after re-migrate, want 3", stats.KnowledgeCount)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.KnowledgeCount != 3 {
		t.Errorf("KnowledgeCount = %d, want 3", stats.KnowledgeCount)
	}
	if stats.ExamplesCount != 2 {
		t.Errorf("ExamplesCount = %d, want 2", stats.ExamplesCount)
	}
	if stats.DBSizeBytes <= 0 {
		t.Errorf("DBSizeBytes = %d, want > 0", stats.DBSizeBytes)
	}
}

func TestSigilTokens(t *testing.T) {
	// $state must index as one token. A bare "state" query does not reach
	// rows whose only occurrence is the sigil form; that gap is what the
	// synonym expansion layer closes.
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Sync(ctx, nil, []corpus.ExampleRecord{
		{Instruction: "sigil only", Input: "none", Output: "$state"},
	}, "test")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	matches, err := s.SearchExamples(ctx, `"$state"`, 10)
	if err != nil {
		t.Fatalf("SearchExamples($state): %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("sigil query matched %d rows, want 1", len(matches))
	}

	matches, err = s.SearchExamples(ctx, `"state"`, 10)
	if err != nil {
		t.Fatalf("SearchExamples(state): %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("bare query matched %d rows against sigil-only content, want 0", len(matches))
	}
}
