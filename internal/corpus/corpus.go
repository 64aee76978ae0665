// Package corpus defines the typed corpus model for sveltekb.
//
// The corpus has two item kinds:
// - Knowledge: concept Q&A pairs keyed by question
// - Examples: code-pattern records keyed by instruction
//
// Items carry a content hash over their semantic fields so the sync layer
// can detect changes without comparing full text.
package corpus

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the two corpus item kinds.
type Kind string

const (
	KindKnowledge Kind = "knowledge"
	KindExamples  Kind = "examples"
)

// ParseKind parses a kind string. Accepts singular aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "knowledge":
		return KindKnowledge, nil
	case "examples", "example":
		return KindExamples, nil
	default:
		return "", fmt.Errorf("unknown corpus kind: %q", s)
	}
}

// KnowledgeRecord is a raw knowledge entry as read from a corpus file.
type KnowledgeRecord struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// ExampleRecord is a raw example entry as read from a corpus file.
type ExampleRecord struct {
	Instruction string `yaml:"instruction" json:"instruction"`
	Input       string `yaml:"input" json:"input"`
	Output      string `yaml:"output" json:"output"`
}

// KnowledgeItem is a stored knowledge row.
type KnowledgeItem struct {
	ID          int64
	Question    string
	Answer      string
	ContentHash string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExampleItem is a stored example row.
type ExampleItem struct {
	ID          int64
	Instruction string
	Input       string
	Output      string
	ContentHash string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidationError reports a corpus record with a missing required field.
// The record is skipped; sync continues with the remaining records.
type ValidationError struct {
	Kind  Kind
	Key   string // unique key of the offending record, may itself be empty
	Field string // name of the missing field
}

func (e *ValidationError) Error() string {
	key := e.Key
	if key == "" {
		key = "<missing key>"
	}
	return fmt.Sprintf("invalid %s record %q: field %q is required", e.Kind, key, e.Field)
}

// Validate checks that all required fields are present and non-empty.
func (r KnowledgeRecord) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return &ValidationError{Kind: KindKnowledge, Key: r.Question, Field: "question"}
	}
	if strings.TrimSpace(r.Answer) == "" {
		return &ValidationError{Kind: KindKnowledge, Key: r.Question, Field: "answer"}
	}
	return nil
}

// Validate checks that all required fields are present and non-empty.
func (r ExampleRecord) Validate() error {
	if strings.TrimSpace(r.Instruction) == "" {
		return &ValidationError{Kind: KindExamples, Key: r.Instruction, Field: "instruction"}
	}
	if strings.TrimSpace(r.Input) == "" {
		return &ValidationError{Kind: KindExamples, Key: r.Instruction, Field: "input"}
	}
	if strings.TrimSpace(r.Output) == "" {
		return &ValidationError{Kind: KindExamples, Key: r.Instruction, Field: "output"}
	}
	return nil
}

// Hash returns the content hash of the record's semantic fields.
func (r KnowledgeRecord) Hash() string {
	return hashFields(r.Question, r.Answer)
}

// Hash returns the content hash of the record's semantic fields.
func (r ExampleRecord) Hash() string {
	return hashFields(r.Instruction, r.Input, r.Output)
}

// hashFields computes SHA-256 over fields joined with a 0x00 separator.
//
// The separator prevents ambiguity between field boundaries: ("ab","c")
// and ("a","bc") must hash differently.
func hashFields(fields ...string) string {
	h := sha256.New()
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(f))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// SnapshotVersion derives a deterministic data version for a corpus snapshot
// from the content hashes of every record in order. Two snapshots share a
// version exactly when their record contents are identical.
func SnapshotVersion(knowledge []KnowledgeRecord, examples []ExampleRecord) string {
	h := sha256.New()
	for _, r := range knowledge {
		h.Write([]byte(r.Hash()))
	}
	h.Write([]byte{0})
	for _, r := range examples {
		h.Write([]byte(r.Hash()))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
