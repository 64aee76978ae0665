package store

import (
	"context"
	"errors"
	"testing"
)

func TestCheckIntegrityClean(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	if err := s.CheckIntegrity(context.Background()); err != nil {
		t.Errorf("CheckIntegrity on a trigger-maintained store: %v", err)
	}
}

func TestCheckIntegrityDetectsDivergence(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	// Bypass the triggers to corrupt the index deliberately.
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO knowledge_fts(rowid, question, answer) VALUES (999, 'phantom', 'row')",
	); err != nil {
		t.Fatalf("corrupting index: %v", err)
	}

	err := s.CheckIntegrity(ctx)
	if !errors.Is(err, ErrIndexInconsistent) {
		t.Fatalf("CheckIntegrity = %v, want ErrIndexInconsistent", err)
	}
}

func TestRebuildIndexRestoresConsistency(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO knowledge_fts(rowid, question, answer) VALUES (999, 'phantom', 'row')",
	); err != nil {
		t.Fatalf("corrupting index: %v", err)
	}

	if err := s.RebuildIndex(ctx); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if err := s.CheckIntegrity(ctx); err != nil {
		t.Errorf("CheckIntegrity after rebuild: %v", err)
	}

	// Search still works against the rebuilt index.
	matches, err := s.SearchKnowledge(ctx, `"reactive"`, 10)
	if err != nil {
		t.Fatalf("SearchKnowledge after rebuild: %v", err)
	}
	if len(matches) == 0 {
		t.Error("rebuilt index returned no matches")
	}
}
