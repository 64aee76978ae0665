package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// SaveSynonyms replaces the persisted synonym dictionary with the given
// table. The store file carries the effective dictionary so later
// processes can search with the same expansion without re-supplying
// synonym configuration.
func (s *Store) SaveSynonyms(ctx context.Context, entries map[string][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning synonyms transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM synonyms"); err != nil {
		return fmt.Errorf("clearing synonyms: %w", err)
	}

	for term, syns := range entries {
		data, err := json.Marshal(syns)
		if err != nil {
			return fmt.Errorf("encoding synonyms for %q: %w", term, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO synonyms (term, synonyms) VALUES (?, ?)", term, string(data),
		); err != nil {
			return fmt.Errorf("writing synonyms for %q: %w", term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing synonyms: %w", err)
	}
	return nil
}

// LoadSynonyms returns the persisted synonym dictionary. An empty map
// means no dictionary has been saved yet.
func (s *Store) LoadSynonyms(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT term, synonyms FROM synonyms")
	if err != nil {
		return nil, fmt.Errorf("reading synonyms: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]string)
	for rows.Next() {
		var term, data string
		if err := rows.Scan(&term, &data); err != nil {
			return nil, fmt.Errorf("scanning synonym row: %w", err)
		}
		var syns []string
		if err := json.Unmarshal([]byte(data), &syns); err != nil {
			return nil, fmt.Errorf("decoding synonyms for %q: %w", term, err)
		}
		entries[term] = syns
	}
	return entries, rows.Err()
}
