package store

import (
	"context"
	"fmt"
)

// CheckIntegrity verifies that each lexical index agrees with its primary
// table. Divergence should be unreachable given the transactional triggers;
// if it is detected the index is untrustworthy and must be rebuilt before
// further queries.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	pairs := []struct {
		table string
		fts   string
	}{
		{"knowledge", "knowledge_fts"},
		{"examples", "examples_fts"},
	}

	for _, p := range pairs {
		// FTS5 external-content integrity check; errors if the index
		// content does not match the backing table.
		cmd := fmt.Sprintf("INSERT INTO %s(%s, rank) VALUES('integrity-check', 1)", p.fts, p.fts)
		if _, err := s.db.ExecContext(ctx, cmd); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrIndexInconsistent, p.fts, err)
		}

		var tableCount, ftsCount int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+p.table).Scan(&tableCount); err != nil {
			return fmt.Errorf("counting %s rows: %w", p.table, err)
		}
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+p.fts).Scan(&ftsCount); err != nil {
			return fmt.Errorf("counting %s rows: %w", p.fts, err)
		}
		if tableCount != ftsCount {
			return fmt.Errorf("%w: %s has %d rows, %s has %d", ErrIndexInconsistent,
				p.table, tableCount, p.fts, ftsCount)
		}
	}

	return nil
}

// RebuildIndex rebuilds both lexical indexes from their primary tables.
func (s *Store) RebuildIndex(ctx context.Context) error {
	for _, fts := range []string{"knowledge_fts", "examples_fts"} {
		cmd := fmt.Sprintf("INSERT INTO %s(%s) VALUES('rebuild')", fts, fts)
		if _, err := s.db.ExecContext(ctx, cmd); err != nil {
			return fmt.Errorf("rebuilding %s: %w", fts, err)
		}
	}
	return nil
}
