package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sveltekb/sveltekb/internal/corpus"
)

// sigilAnalyzer tokenizes on whitespace only, so rune sigils like $state
// and single-character tokens survive intact. The stock analyzers strip
// punctuation, which silently empties sigil-bearing queries.
const sigilAnalyzer = "sigil_ws"

// fuzzyFuzziness is the per-term edit distance. One edit is lenient
// enough for typos while a whitespace analyzer keeps short domain tokens
// (minimum match length 1) searchable at all.
const fuzzyFuzziness = 1

// Relative field weights per item kind; normalized over the kind's total
// at query time.
var (
	knowledgeWeights = map[string]float64{"question": 2.0, "answer": 1.0}
	exampleWeights   = map[string]float64{"instruction": 2.0, "input": 1.0, "output": 1.0}
)

// Matcher is the in-memory approximate-match backend, used when no
// persistent full-text index is configured. It indexes weighted fields
// with bleve, runs every expansion variant independently, and keeps the
// best score per item across variants.
type Matcher struct {
	knowledge bleve.Index
	examples  bleve.Index
	kdocs     map[string]map[string]string
	edocs     map[string]map[string]string
}

var _ Backend = (*Matcher)(nil)

// NewMatcher creates an empty in-memory matcher.
func NewMatcher() (*Matcher, error) {
	kidx, err := newMemIndex()
	if err != nil {
		return nil, fmt.Errorf("creating knowledge index: %w", err)
	}
	eidx, err := newMemIndex()
	if err != nil {
		return nil, fmt.Errorf("creating examples index: %w", err)
	}
	return &Matcher{
		knowledge: kidx,
		examples:  eidx,
		kdocs:     make(map[string]map[string]string),
		edocs:     make(map[string]map[string]string),
	}, nil
}

func newMemIndex() (bleve.Index, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(sigilAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("registering analyzer: %w", err)
	}
	im.DefaultAnalyzer = sigilAnalyzer
	return bleve.NewMemOnly(im)
}

// Load indexes full corpus snapshots, resolving duplicate unique keys
// last-write-wins and skipping malformed records, mirroring the sync
// layer's semantics.
func (m *Matcher) Load(knowledge []corpus.KnowledgeRecord, examples []corpus.ExampleRecord) error {
	var nextID int64
	byKey := make(map[string]string)
	for _, r := range knowledge {
		if r.Validate() != nil {
			continue
		}
		id, ok := byKey[r.Question]
		if !ok {
			nextID++
			id = strconv.FormatInt(nextID, 10)
			byKey[r.Question] = id
		}
		fields := map[string]string{"question": r.Question, "answer": r.Answer}
		if err := m.knowledge.Index(id, fields); err != nil {
			return fmt.Errorf("indexing knowledge %q: %w", r.Question, err)
		}
		m.kdocs[id] = fields
	}

	nextID = 0
	byKey = make(map[string]string)
	for _, r := range examples {
		if r.Validate() != nil {
			continue
		}
		id, ok := byKey[r.Instruction]
		if !ok {
			nextID++
			id = strconv.FormatInt(nextID, 10)
			byKey[r.Instruction] = id
		}
		fields := map[string]string{"instruction": r.Instruction, "input": r.Input, "output": r.Output}
		if err := m.examples.Index(id, fields); err != nil {
			return fmt.Errorf("indexing example %q: %w", r.Instruction, err)
		}
		m.edocs[id] = fields
	}

	return nil
}

// SearchKnowledge runs every expansion variant against the knowledge
// index and merges results by item identity, keeping the best score.
func (m *Matcher) SearchKnowledge(ctx context.Context, x Expansion, limit int) ([]Hit, error) {
	return m.search(ctx, m.knowledge, m.kdocs, corpus.KindKnowledge, knowledgeWeights, x, limit)
}

// SearchExamples runs every expansion variant against the examples index.
func (m *Matcher) SearchExamples(ctx context.Context, x Expansion, limit int) ([]Hit, error) {
	return m.search(ctx, m.examples, m.edocs, corpus.KindExamples, exampleWeights, x, limit)
}

func (m *Matcher) search(ctx context.Context, idx bleve.Index, docs map[string]map[string]string, kind corpus.Kind, weights map[string]float64, x Expansion, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	best := make(map[string]float64)
	for _, term := range x.Terms {
		fieldQueries := make([]query.Query, 0, len(weights))
		for field, w := range weights {
			q := bleve.NewMatchQuery(term)
			q.SetField(field)
			q.SetBoost(w / total)
			q.SetFuzziness(fuzzyFuzziness)
			fieldQueries = append(fieldQueries, q)
		}

		req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(fieldQueries...), limit, 0, false)
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fuzzy search for %q: %w", term, err)
		}

		for _, hit := range res.Hits {
			// Rank convention: negative, lower is better. A bleve score
			// of s maps to -(s/(1+s)), so stronger matches sort first
			// and the merged best score per item is the minimum.
			score := -(hit.Score / (1 + hit.Score))
			if prev, ok := best[hit.ID]; !ok || score < prev {
				best[hit.ID] = score
			}
		}
	}

	hits := make([]Hit, 0, len(best))
	for id, score := range best {
		fields, ok := docs[id]
		if !ok {
			continue
		}
		numID, _ := strconv.ParseInt(id, 10, 64)
		hits = append(hits, Hit{
			ID:     numID,
			Kind:   kind,
			Fields: fields,
			Score:  score,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score < hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases both in-memory indexes.
func (m *Matcher) Close() error {
	if err := m.knowledge.Close(); err != nil {
		return err
	}
	return m.examples.Close()
}
