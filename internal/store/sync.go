package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

// SyncReport summarizes one sync call.
type SyncReport struct {
	Inserted int
	Updated  int
	Skipped  int
	NoOp     bool // data version matched; nothing was examined
	Invalid  []corpus.ValidationError
}

// Sync reconciles full corpus snapshots against the stored rows.
//
// If the snapshot's derived data version equals the stored one the whole
// call is a no-op. Otherwise each record is matched by its unique key:
// missing rows are inserted, rows with a different content hash are updated
// in place (id preserved, version bumped), and matching hashes are skipped.
// Malformed records are excluded per-item and reported; they never abort
// the sync. All writes, including the metadata update, commit in a single
// transaction; a failure anywhere rolls back everything.
func (s *Store) Sync(ctx context.Context, knowledge []corpus.KnowledgeRecord, examples []corpus.ExampleRecord, source string) (*SyncReport, error) {
	report := &SyncReport{}

	validKnowledge := dedupeKnowledge(knowledge, report)
	validExamples := dedupeExamples(examples, report)

	version := corpus.SnapshotVersion(knowledge, examples)
	stored, err := s.getMeta(ctx, metaDataVersion)
	if err != nil {
		return nil, err
	}
	if stored == version {
		report.NoOp = true
		return report, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &TransactionError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, r := range validKnowledge {
		if err := syncKnowledgeRecord(ctx, tx, r, now, report); err != nil {
			return nil, &TransactionError{Op: fmt.Sprintf("knowledge %q", r.Question), Err: err}
		}
	}
	for _, r := range validExamples {
		if err := syncExampleRecord(ctx, tx, r, now, report); err != nil {
			return nil, &TransactionError{Op: fmt.Sprintf("example %q", r.Instruction), Err: err}
		}
	}

	meta := map[string]string{
		metaLastSyncTime:   now.Format(time.RFC3339),
		metaDataVersion:    version,
		metaSourceName:     source,
		metaKnowledgeCount: strconv.Itoa(len(validKnowledge)),
		metaExamplesCount:  strconv.Itoa(len(validExamples)),
	}
	for k, v := range meta {
		if err := setMetaTx(ctx, tx, k, v); err != nil {
			return nil, &TransactionError{Op: "metadata", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &TransactionError{Op: "commit", Err: err}
	}

	return report, nil
}

// dedupeKnowledge validates records and resolves duplicate questions
// last-write-wins, preserving first-seen order.
func dedupeKnowledge(records []corpus.KnowledgeRecord, report *SyncReport) []corpus.KnowledgeRecord {
	index := make(map[string]int)
	out := make([]corpus.KnowledgeRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			if ve, ok := err.(*corpus.ValidationError); ok {
				report.Invalid = append(report.Invalid, *ve)
			}
			continue
		}
		if i, seen := index[r.Question]; seen {
			out[i] = r
			continue
		}
		index[r.Question] = len(out)
		out = append(out, r)
	}
	return out
}

func dedupeExamples(records []corpus.ExampleRecord, report *SyncReport) []corpus.ExampleRecord {
	index := make(map[string]int)
	out := make([]corpus.ExampleRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			if ve, ok := err.(*corpus.ValidationError); ok {
				report.Invalid = append(report.Invalid, *ve)
			}
			continue
		}
		if i, seen := index[r.Instruction]; seen {
			out[i] = r
			continue
		}
		index[r.Instruction] = len(out)
		out = append(out, r)
	}
	return out
}

// syncKnowledgeRecord classifies insert vs update by checking row existence
// on the unique key, never by inspecting returned insert ids.
func syncKnowledgeRecord(ctx context.Context, tx *sql.Tx, r corpus.KnowledgeRecord, now time.Time, report *SyncReport) error {
	hash := r.Hash()

	var id int64
	var storedHash string
	err := tx.QueryRowContext(ctx,
		"SELECT id, content_hash FROM knowledge WHERE question = ?", r.Question,
	).Scan(&id, &storedHash)

	switch {
	case err == sql.ErrNoRows:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO knowledge (question, answer, content_hash, version, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			r.Question, r.Answer, hash, now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting: %w", err)
		}
		report.Inserted++
	case err != nil:
		return fmt.Errorf("looking up: %w", err)
	case storedHash != hash:
		_, err := tx.ExecContext(ctx,
			`UPDATE knowledge SET answer = ?, content_hash = ?, version = version + 1, updated_at = ?
			 WHERE id = ?`,
			r.Answer, hash, now, id,
		)
		if err != nil {
			return fmt.Errorf("updating: %w", err)
		}
		report.Updated++
	default:
		report.Skipped++
	}
	return nil
}

func syncExampleRecord(ctx context.Context, tx *sql.Tx, r corpus.ExampleRecord, now time.Time, report *SyncReport) error {
	hash := r.Hash()

	var id int64
	var storedHash string
	err := tx.QueryRowContext(ctx,
		"SELECT id, content_hash FROM examples WHERE instruction = ?", r.Instruction,
	).Scan(&id, &storedHash)

	switch {
	case err == sql.ErrNoRows:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO examples (instruction, input, output, content_hash, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			r.Instruction, r.Input, r.Output, hash, now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting: %w", err)
		}
		report.Inserted++
	case err != nil:
		return fmt.Errorf("looking up: %w", err)
	case storedHash != hash:
		_, err := tx.ExecContext(ctx,
			`UPDATE examples SET input = ?, output = ?, content_hash = ?, version = version + 1, updated_at = ?
			 WHERE id = ?`,
			r.Input, r.Output, hash, now, id,
		)
		if err != nil {
			return fmt.Errorf("updating: %w", err)
		}
		report.Updated++
	default:
		report.Skipped++
	}
	return nil
}
