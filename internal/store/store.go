// Package store provides the SQLite + FTS5 index store for sveltekb.
//
// All corpus data lives in a single SQLite database file, including:
// - Knowledge and example rows with content hashes and versions
// - FTS5 lexical indexes, kept in sync by triggers
// - Sync metadata (data version, counts, timestamps)
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.sveltekb/sveltekb.db"

// ErrIndexInconsistent reports divergence between a primary table and its
// lexical index. The index must be rebuilt before further queries.
var ErrIndexInconsistent = errors.New("lexical index diverged from primary rows")

// TransactionError wraps any failure inside an atomic sync transaction.
// The whole batch was rolled back; the store is at its pre-call state.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("sync transaction failed during %s (rolled back): %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Config holds configuration for Open.
type Config struct {
	DBPath string
}

// Stats holds observability statistics about the store.
type Stats struct {
	KnowledgeCount int64
	ExamplesCount  int64
	DBSizeBytes    int64
}

// Store is the SQLite-backed index store. A single logical writer is
// assumed; sync calls serialize through one transaction each.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the store database.
// Pass ":memory:" for in-memory databases (testing).
func Open(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dbPath: cfg.DBPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats returns row counts and the database size on disk.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge").Scan(&st.KnowledgeCount); err != nil {
		return nil, fmt.Errorf("counting knowledge rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM examples").Scan(&st.ExamplesCount); err != nil {
		return nil, fmt.Errorf("counting example rows: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
	).Scan(&st.DBSizeBytes); err != nil {
		return nil, fmt.Errorf("reading db size: %w", err)
	}
	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
