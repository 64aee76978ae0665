package store

import (
	"context"
	"testing"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

func TestSyncInsertsFreshCorpus(t *testing.T) {
	s := newTestStore(t)

	report, err := s.Sync(context.Background(), testKnowledge(), testExamples(), "fixture")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if report.Inserted != 5 {
		t.Errorf("Inserted = %d, want 5", report.Inserted)
	}
	if report.Updated != 0 || report.Skipped != 0 {
		t.Errorf("Updated/Skipped = %d/%d, want 0/0", report.Updated, report.Skipped)
	}
	if report.NoOp {
		t.Error("fresh sync must not report NoOp")
	}
}

func TestSyncIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Sync(ctx, testKnowledge(), testExamples(), "fixture"); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	report, err := s.Sync(ctx, testKnowledge(), testExamples(), "fixture")
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if !report.NoOp {
		t.Error("identical snapshot must short-circuit as NoOp")
	}
	if report.Inserted != 0 || report.Updated != 0 {
		t.Errorf("Inserted/Updated = %d/%d on identical snapshot, want 0/0",
			report.Inserted, report.Updated)
	}
}

func TestSyncUpdatesChangedRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	knowledge := testKnowledge()
	if _, err := s.Sync(ctx, knowledge, nil, "fixture"); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	before, err := s.GetKnowledgeByQuestion(ctx, knowledge[0].Question)
	if err != nil {
		t.Fatalf("GetKnowledgeByQuestion: %v", err)
	}
	if before == nil {
		t.Fatal("seeded row not found")
	}

	knowledge[0].Answer = "Use the $state rune; plain let is not reactive."
	report, err := s.Sync(ctx, knowledge, nil, "fixture")
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	if report.Updated != 1 {
		t.Errorf("Updated = %d, want 1", report.Updated)
	}
	if report.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0", report.Inserted)
	}
	if report.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", report.Skipped)
	}

	after, err := s.GetKnowledgeByQuestion(ctx, knowledge[0].Question)
	if err != nil {
		t.Fatalf("GetKnowledgeByQuestion: %v", err)
	}
	if after.ID != before.ID {
		t.Errorf("update replaced id %d with %d; identity must be preserved", before.ID, after.ID)
	}
	if after.ContentHash == before.ContentHash {
		t.Error("content hash unchanged after content update")
	}
	if after.Version != before.Version+1 {
		t.Errorf("version = %d, want %d", after.Version, before.Version+1)
	}
	if after.Answer != knowledge[0].Answer {
		t.Errorf("answer = %q, want updated text", after.Answer)
	}
}

func TestSyncSkipsInvalidRecords(t *testing.T) {
	s := newTestStore(t)

	knowledge := []corpus.KnowledgeRecord{
		{Question: "valid", Answer: "yes"},
		{Question: "", Answer: "no key"},
		{Question: "blank answer", Answer: "   "},
	}

	report, err := s.Sync(context.Background(), knowledge, nil, "fixture")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if report.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", report.Inserted)
	}
	if len(report.Invalid) != 2 {
		t.Fatalf("Invalid = %d entries, want 2", len(report.Invalid))
	}
	if report.Invalid[0].Field != "question" {
		t.Errorf("first invalid field = %q, want question", report.Invalid[0].Field)
	}
}

func TestSyncLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	knowledge := []corpus.KnowledgeRecord{
		{Question: "duplicate", Answer: "first"},
		{Question: "other", Answer: "keeps order"},
		{Question: "duplicate", Answer: "second"},
	}

	report, err := s.Sync(ctx, knowledge, nil, "fixture")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if report.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", report.Inserted)
	}

	item, err := s.GetKnowledgeByQuestion(ctx, "duplicate")
	if err != nil {
		t.Fatalf("GetKnowledgeByQuestion: %v", err)
	}
	if item.Answer != "second" {
		t.Errorf("answer = %q, want %q (last occurrence wins)", item.Answer, "second")
	}

	// First-seen order: the duplicate keeps its original position.
	items, err := s.ListKnowledge(ctx)
	if err != nil {
		t.Fatalf("ListKnowledge: %v", err)
	}
	if len(items) != 2 || items[0].Question != "duplicate" {
		t.Errorf("insertion order lost: %+v", items)
	}
}

func TestSyncWritesMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Sync(ctx, testKnowledge(), testExamples(), "corpus-v1.yaml"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	md, err := s.SyncMetadata(ctx)
	if err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}
	if md.DataVersion == "" {
		t.Error("data version not recorded")
	}
	if md.SourceName != "corpus-v1.yaml" {
		t.Errorf("source = %q, want corpus-v1.yaml", md.SourceName)
	}
	if md.LastSyncTime.IsZero() {
		t.Error("last sync time not recorded")
	}
	if md.KnowledgeCount != 3 || md.ExamplesCount != 2 {
		t.Errorf("counts = %d/%d, want 3/2", md.KnowledgeCount, md.ExamplesCount)
	}
}

func TestSyncRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Sync(ctx, testKnowledge(), testExamples(), "fixture"); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	// Nothing partial may remain.
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.KnowledgeCount != 0 || stats.ExamplesCount != 0 {
		t.Errorf("rows survived a rolled-back sync: %d/%d",
			stats.KnowledgeCount, stats.ExamplesCount)
	}
	md, err := s.SyncMetadata(context.Background())
	if err != nil {
		t.Fatalf("SyncMetadata: %v", err)
	}
	if md.DataVersion != "" {
		t.Error("data version written despite rollback")
	}
}
