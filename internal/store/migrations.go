package store

import (
	"fmt"
	"time"
)

// migrate creates all tables, FTS indexes, and triggers if they don't exist.
//
// The FTS5 tables use external content (content= / content_rowid=) so the
// index never stores text twice, and triggers mirror every insert, update,
// and delete into the index inside the same transaction as the primary
// write. There is no observable state where a row and its index entry
// disagree.
//
// tokenchars '$' keeps rune sigils like $state and $derived as single
// searchable tokens; the default unicode61 tokenizer would strip them.
func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS knowledge (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			question     TEXT UNIQUE NOT NULL,
			answer       TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			version      INTEGER NOT NULL DEFAULT 1,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
			question,
			answer,
			content=knowledge,
			content_rowid=id,
			tokenize='porter unicode61 tokenchars ''$'''
		)`,

		`CREATE TRIGGER IF NOT EXISTS knowledge_ai AFTER INSERT ON knowledge BEGIN
			INSERT INTO knowledge_fts(rowid, question, answer)
			VALUES (new.id, new.question, new.answer);
		END`,

		`CREATE TRIGGER IF NOT EXISTS knowledge_ad AFTER DELETE ON knowledge BEGIN
			INSERT INTO knowledge_fts(knowledge_fts, rowid, question, answer)
			VALUES('delete', old.id, old.question, old.answer);
		END`,

		`CREATE TRIGGER IF NOT EXISTS knowledge_au AFTER UPDATE ON knowledge BEGIN
			INSERT INTO knowledge_fts(knowledge_fts, rowid, question, answer)
			VALUES('delete', old.id, old.question, old.answer);
			INSERT INTO knowledge_fts(rowid, question, answer)
			VALUES (new.id, new.question, new.answer);
		END`,

		`CREATE TABLE IF NOT EXISTS examples (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			instruction  TEXT UNIQUE NOT NULL,
			input        TEXT NOT NULL,
			output       TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			version      INTEGER NOT NULL DEFAULT 1,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS examples_fts USING fts5(
			instruction,
			input,
			output,
			content=examples,
			content_rowid=id,
			tokenize='porter unicode61 tokenchars ''$'''
		)`,

		`CREATE TRIGGER IF NOT EXISTS examples_ai AFTER INSERT ON examples BEGIN
			INSERT INTO examples_fts(rowid, instruction, input, output)
			VALUES (new.id, new.instruction, new.input, new.output);
		END`,

		`CREATE TRIGGER IF NOT EXISTS examples_ad AFTER DELETE ON examples BEGIN
			INSERT INTO examples_fts(examples_fts, rowid, instruction, input, output)
			VALUES('delete', old.id, old.instruction, old.input, old.output);
		END`,

		`CREATE TRIGGER IF NOT EXISTS examples_au AFTER UPDATE ON examples BEGIN
			INSERT INTO examples_fts(examples_fts, rowid, instruction, input, output)
			VALUES('delete', old.id, old.instruction, old.input, old.output);
			INSERT INTO examples_fts(rowid, instruction, input, output)
			VALUES (new.id, new.instruction, new.input, new.output);
		END`,

		`CREATE TABLE IF NOT EXISTS sync_meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS synonyms (
			term     TEXT PRIMARY KEY,
			synonyms TEXT NOT NULL
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", truncate(stmt, 80), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return s.seedMeta()
}

// seedMeta initializes the sync_meta table with defaults if not already set.
func (s *Store) seedMeta() error {
	defaults := map[string]string{
		"schema_version": "1",
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}

	for k, v := range defaults {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO sync_meta (key, value) VALUES (?, ?)", k, v,
		)
		if err != nil {
			return fmt.Errorf("seeding meta key %q: %w", k, err)
		}
	}
	return nil
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
