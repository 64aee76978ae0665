package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

// Highlight markers wrapped around matched spans. Stripping every marker
// pair from a highlighted field reproduces the original text exactly.
const (
	HighlightOpen  = "<mark>"
	HighlightClose = "</mark>"
)

// KnowledgeMatch is one ranked knowledge row from the lexical index.
type KnowledgeMatch struct {
	Item corpus.KnowledgeItem

	// Rank is the native FTS5 relevance rank; negative, lower is better.
	Rank float64
	// PrimaryRank is the bm25 rank attributed to the question column
	// alone. It is negative exactly when the question itself matched.
	PrimaryRank float64

	HighlightedQuestion string
	HighlightedAnswer   string
}

// ExampleMatch is one ranked example row from the lexical index.
type ExampleMatch struct {
	Item corpus.ExampleItem

	Rank        float64
	PrimaryRank float64

	HighlightedInstruction string
	HighlightedInput       string
	HighlightedOutput      string
}

// SearchKnowledge runs an FTS5 MATCH expression against the knowledge
// index. The expression is an OR-combination of quoted phrase terms.
// A malformed expression surfaces as an error from the FTS engine.
func (s *Store) SearchKnowledge(ctx context.Context, matchExpr string, limit int) ([]KnowledgeMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT k.id, k.question, k.answer, k.content_hash, k.version, k.created_at, k.updated_at,
		        rank,
		        bm25(knowledge_fts, 1.0, 0.0),
		        highlight(knowledge_fts, 0, ?, ?),
		        highlight(knowledge_fts, 1, ?, ?)
		 FROM knowledge_fts
		 JOIN knowledge k ON knowledge_fts.rowid = k.id
		 WHERE knowledge_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		HighlightOpen, HighlightClose, HighlightOpen, HighlightClose, matchExpr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("knowledge FTS search: %w", err)
	}
	defer rows.Close()

	var matches []KnowledgeMatch
	for rows.Next() {
		var m KnowledgeMatch
		if err := rows.Scan(&m.Item.ID, &m.Item.Question, &m.Item.Answer,
			&m.Item.ContentHash, &m.Item.Version, &m.Item.CreatedAt, &m.Item.UpdatedAt,
			&m.Rank, &m.PrimaryRank,
			&m.HighlightedQuestion, &m.HighlightedAnswer); err != nil {
			return nil, fmt.Errorf("scanning knowledge match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SearchExamples runs an FTS5 MATCH expression against the examples index.
func (s *Store) SearchExamples(ctx context.Context, matchExpr string, limit int) ([]ExampleMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.instruction, e.input, e.output, e.content_hash, e.version, e.created_at, e.updated_at,
		        rank,
		        bm25(examples_fts, 1.0, 0.0, 0.0),
		        highlight(examples_fts, 0, ?, ?),
		        highlight(examples_fts, 1, ?, ?),
		        highlight(examples_fts, 2, ?, ?)
		 FROM examples_fts
		 JOIN examples e ON examples_fts.rowid = e.id
		 WHERE examples_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		HighlightOpen, HighlightClose, HighlightOpen, HighlightClose,
		HighlightOpen, HighlightClose, matchExpr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("examples FTS search: %w", err)
	}
	defer rows.Close()

	var matches []ExampleMatch
	for rows.Next() {
		var m ExampleMatch
		if err := rows.Scan(&m.Item.ID, &m.Item.Instruction, &m.Item.Input, &m.Item.Output,
			&m.Item.ContentHash, &m.Item.Version, &m.Item.CreatedAt, &m.Item.UpdatedAt,
			&m.Rank, &m.PrimaryRank,
			&m.HighlightedInstruction, &m.HighlightedInput, &m.HighlightedOutput); err != nil {
			return nil, fmt.Errorf("scanning example match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetKnowledgeByQuestion looks up a knowledge row by its unique key.
// Returns nil if not found.
func (s *Store) GetKnowledgeByQuestion(ctx context.Context, question string) (*corpus.KnowledgeItem, error) {
	item := &corpus.KnowledgeItem{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer, content_hash, version, created_at, updated_at
		 FROM knowledge WHERE question = ?`, question,
	).Scan(&item.ID, &item.Question, &item.Answer, &item.ContentHash,
		&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting knowledge by question: %w", err)
	}
	return item, nil
}

// GetExampleByInstruction looks up an example row by its unique key.
// Returns nil if not found.
func (s *Store) GetExampleByInstruction(ctx context.Context, instruction string) (*corpus.ExampleItem, error) {
	item := &corpus.ExampleItem{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, instruction, input, output, content_hash, version, created_at, updated_at
		 FROM examples WHERE instruction = ?`, instruction,
	).Scan(&item.ID, &item.Instruction, &item.Input, &item.Output,
		&item.ContentHash, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting example by instruction: %w", err)
	}
	return item, nil
}

// ListKnowledge returns all knowledge rows in insertion order.
func (s *Store) ListKnowledge(ctx context.Context) ([]corpus.KnowledgeItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, content_hash, version, created_at, updated_at
		 FROM knowledge ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge: %w", err)
	}
	defer rows.Close()

	var items []corpus.KnowledgeItem
	for rows.Next() {
		var item corpus.KnowledgeItem
		if err := rows.Scan(&item.ID, &item.Question, &item.Answer, &item.ContentHash,
			&item.Version, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListExamples returns all example rows in insertion order.
func (s *Store) ListExamples(ctx context.Context) ([]corpus.ExampleItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, instruction, input, output, content_hash, version, created_at, updated_at
		 FROM examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing examples: %w", err)
	}
	defer rows.Close()

	var items []corpus.ExampleItem
	for rows.Next() {
		var item corpus.ExampleItem
		if err := rows.Scan(&item.ID, &item.Instruction, &item.Input, &item.Output,
			&item.ContentHash, &item.Version, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning example row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
