package searchindex

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"
)

// BM25 parameters shared with common search engines.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// MemoryIndex is an in-process Index for the local build target and tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	exists  bool
	docs    map[string]Document
	pingErr error
}

// NewMemoryIndex returns an empty index that already exists.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{exists: true, docs: map[string]Document{}}
}

var _ Index = (*MemoryIndex)(nil)

func (m *MemoryIndex) Query(_ context.Context, q Query, from, size int) ([]string, error) {
	m.mu.RLock()
	docs := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	m.mu.RUnlock()

	var scores map[string]float64
	if q.Text != "" {
		scores = bm25(q.Text, docs)
	}
	candidates := make([]Candidate, 0, len(docs))
	for _, d := range docs {
		candidates = append(candidates, Candidate{Doc: d, TextScore: scores[d.ContentID]})
	}
	return Page(Rank(q, candidates), from, size), nil
}

func (m *MemoryIndex) IndexDocument(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ContentID] = doc
	return nil
}

func (m *MemoryIndex) IndexDocuments(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		if err := m.IndexDocument(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryIndex) DeleteDocument(_ context.Context, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, contentID)
	return nil
}

func (m *MemoryIndex) EnsureIndex(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists {
		return false, nil
	}
	m.exists = true
	return true, nil
}

func (m *MemoryIndex) DeleteIndex(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = false
	m.docs = map[string]Document{}
	return nil
}

// HealthPing reports the error set by SetPingError, nil by default.
func (m *MemoryIndex) HealthPing(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingErr
}

// SetPingError makes HealthPing fail with err; nil restores health.
func (m *MemoryIndex) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Len returns the number of indexed documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// bm25 scores docs against the query over TextFields, summing boosted per-field scores.
func bm25(query string, docs []Document) map[string]float64 {
	terms := tokenize(query)
	scores := make(map[string]float64, len(docs))
	if len(terms) == 0 || len(docs) == 0 {
		return scores
	}
	n := float64(len(docs))

	for _, f := range TextFields {
		tokens := make([][]string, len(docs))
		var total float64
		df := map[string]int{}
		for i, d := range docs {
			tokens[i] = tokenize(fieldText(d, f.Name))
			total += float64(len(tokens[i]))
			seen := map[string]bool{}
			for _, tok := range tokens[i] {
				if !seen[tok] {
					seen[tok] = true
					df[tok]++
				}
			}
		}
		avg := total / n
		if avg == 0 {
			continue
		}
		for i, d := range docs {
			tf := map[string]int{}
			for _, tok := range tokens[i] {
				tf[tok]++
			}
			dl := float64(len(tokens[i]))
			var s float64
			for _, term := range terms {
				freq := float64(tf[term])
				if freq == 0 {
					continue
				}
				idf := math.Log(1 + (n-float64(df[term])+0.5)/(float64(df[term])+0.5))
				s += idf * freq * (bm25K1 + 1) / (freq + bm25K1*(1-bm25B+bm25B*dl/avg))
			}
			if s > 0 {
				scores[d.ContentID] += f.Boost * s
			}
		}
	}
	return scores
}

func fieldText(d Document, field string) string {
	switch field {
	case "title":
		return d.Title
	case "description":
		return d.Description
	case "body":
		return d.Body
	case FieldTags:
		return strings.Join(d.Tags, " ")
	case FieldCategories:
		return strings.Join(d.Categories, " ")
	}
	return ""
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
