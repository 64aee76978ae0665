package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Sync metadata keys.
const (
	metaLastSyncTime   = "last_sync_time"
	metaDataVersion    = "data_version"
	metaSourceName     = "source_name"
	metaKnowledgeCount = "knowledge_count"
	metaExamplesCount  = "examples_count"
)

// SyncMetadata describes the last successful sync.
type SyncMetadata struct {
	LastSyncTime   time.Time
	DataVersion    string
	SourceName     string
	KnowledgeCount int
	ExamplesCount  int
}

// SyncMetadata returns the stored sync metadata. Fields that were never
// written are zero values.
func (s *Store) SyncMetadata(ctx context.Context) (*SyncMetadata, error) {
	md := &SyncMetadata{}

	var err error
	if md.DataVersion, err = s.getMeta(ctx, metaDataVersion); err != nil {
		return nil, err
	}
	if md.SourceName, err = s.getMeta(ctx, metaSourceName); err != nil {
		return nil, err
	}

	if ts, err := s.getMeta(ctx, metaLastSyncTime); err != nil {
		return nil, err
	} else if ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", metaLastSyncTime, ts, err)
		}
		md.LastSyncTime = parsed
	}

	if v, err := s.getMeta(ctx, metaKnowledgeCount); err != nil {
		return nil, err
	} else if v != "" {
		md.KnowledgeCount, _ = strconv.Atoi(v)
	}
	if v, err := s.getMeta(ctx, metaExamplesCount); err != nil {
		return nil, err
	} else if v != "" {
		md.ExamplesCount, _ = strconv.Atoi(v)
	}

	return md, nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sync_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading meta key %q: %w", key, err)
	}
	return value, nil
}

// setMetaTx writes a metadata key inside an open sync transaction.
func setMetaTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)", key, value,
	)
	if err != nil {
		return fmt.Errorf("writing meta key %q: %w", key, err)
	}
	return nil
}
