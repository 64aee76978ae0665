package store

import (
	"context"
	"testing"
)

func TestSynonymsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := map[string][]string{
		"state":  {"$state", "rune", "reactive"},
		"effect": {"$effect", "$state"},
	}
	if err := s.SaveSynonyms(ctx, entries); err != nil {
		t.Fatalf("SaveSynonyms: %v", err)
	}

	loaded, err := s.LoadSynonyms(ctx)
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d terms, want 2", len(loaded))
	}
	if got := loaded["state"]; len(got) != 3 || got[0] != "$state" {
		t.Errorf("state synonyms = %v", got)
	}
}

func TestSaveSynonymsReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSynonyms(ctx, map[string][]string{"old": {"stale"}}); err != nil {
		t.Fatalf("first SaveSynonyms: %v", err)
	}
	if err := s.SaveSynonyms(ctx, map[string][]string{"new": {"fresh"}}); err != nil {
		t.Fatalf("second SaveSynonyms: %v", err)
	}

	loaded, err := s.LoadSynonyms(ctx)
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	if _, ok := loaded["old"]; ok {
		t.Error("replaced dictionary still holds the old term")
	}
	if _, ok := loaded["new"]; !ok {
		t.Error("new term missing after replace")
	}
}

func TestLoadSynonymsEmpty(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.LoadSynonyms(context.Background())
	if err != nil {
		t.Fatalf("LoadSynonyms: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("fresh store returned %d synonym terms", len(loaded))
	}
}
