package searchindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

// Candidate is a document that reached the ranking stage. TextScore carries
// the backend's full-text relevance and is only read for text queries.
type Candidate struct {
	Doc       Document
	TextScore float64
}

// Scored is a ranked document.
type Scored struct {
	ContentID string
	Score     float64
	doc       Document
}

// Rank filters and scores candidates with function-score semantics and
// returns them in query order.
//
// Base relevance is the text score for text queries, the number of matching
// should-clauses when the filter has any, and 1 otherwise. The function score
// combines the matching functions (1 when none match) and is multiplied into
// the base relevance.
func Rank(q Query, candidates []Candidate) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		base, ok := baseRelevance(q, c)
		if !ok {
			continue
		}
		score := combine(q.BoostMode, base, functionScore(q, c.Doc))
		out = append(out, Scored{ContentID: c.Doc.ContentID, Score: score, doc: c.Doc})
	}
	sortScored(q.Sort, out)
	return out
}

// Offset converts a 1-based page into the offset of its first document.
// Pages whose end would not fit in an int are rejected rather than wrapped.
func Offset(page, pageSize int) (int, error) {
	if page < 1 || pageSize < 1 {
		return 0, fmt.Errorf("page and pageSize must be positive: %w", model.ErrValidation)
	}
	if page > math.MaxInt/pageSize {
		return 0, fmt.Errorf("page %d out of range for pageSize %d: %w", page, pageSize, model.ErrValidation)
	}
	return (page - 1) * pageSize, nil
}

// Page slices ranked ids to the window [from, from+size).
func Page(ranked []Scored, from, size int) []string {
	if from < 0 {
		from = 0
	}
	if from >= len(ranked) || size <= 0 {
		return []string{}
	}
	end := len(ranked)
	if size < end-from {
		end = from + size
	}
	ids := make([]string, 0, end-from)
	for _, s := range ranked[from:end] {
		ids = append(ids, s.ContentID)
	}
	return ids
}

// Matches reports whether doc satisfies the filter.
func (f Filter) Matches(doc Document) bool {
	for _, c := range f.Must {
		if !c.Matches(doc) {
			return false
		}
	}
	if len(f.Should) == 0 {
		return true
	}
	return countShould(f, doc) >= max(1, f.MinimumShouldMatch)
}

// Matches reports whether doc holds at least one of the clause values.
func (c Clause) Matches(doc Document) bool {
	for _, have := range fieldValues(doc, c.Field) {
		for _, want := range c.Values {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Value evaluates the decay for a document timestamp.
func (g GaussDecay) Value(doc Document) float64 {
	if g.Scale <= 0 || g.Decay <= 0 || g.Decay >= 1 {
		return 1
	}
	d := math.Abs(doc.CreationTime.Sub(g.Origin).Seconds())
	scale := g.Scale.Seconds()
	// exp(-d^2 / 2s^2) with s^2 chosen so that the value at d=scale is Decay.
	return math.Exp(d * d * math.Log(g.Decay) / (scale * scale))
}

func baseRelevance(q Query, c Candidate) (float64, bool) {
	if !q.Filter.Matches(c.Doc) {
		return 0, false
	}
	if q.Text != "" {
		if c.TextScore <= 0 {
			return 0, false
		}
		return c.TextScore, true
	}
	if len(q.Filter.Should) > 0 {
		return float64(countShould(q.Filter, c.Doc)), true
	}
	return 1, true
}

func functionScore(q Query, doc Document) float64 {
	matched := false
	var sum float64
	for _, fn := range q.Functions {
		if fn.Filter != nil && !fn.Filter.Matches(doc) {
			continue
		}
		matched = true
		if fn.Decay != nil {
			sum += fn.Decay.Value(doc)
		} else {
			sum += fn.Weight
		}
	}
	if !matched {
		return 1
	}
	// Sum is the only score mode in use; other modes fall back to it.
	return sum
}

// combine applies the boost mode. Multiply is the only mode in use.
func combine(_ BoostMode, base, fn float64) float64 {
	return base * fn
}

func countShould(f Filter, doc Document) int {
	n := 0
	for _, c := range f.Should {
		if c.Matches(doc) {
			n++
		}
	}
	return n
}

func fieldValues(doc Document, field string) []string {
	switch field {
	case FieldCategories:
		return doc.Categories
	case FieldTags:
		return doc.Tags
	case FieldCreatorID:
		return []string{doc.CreatorID}
	}
	return nil
}

func sortScored(order SortOrder, s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		switch order {
		case SortByRecency:
			if !a.doc.CreationTime.Equal(b.doc.CreationTime) {
				return a.doc.CreationTime.After(b.doc.CreationTime)
			}
		case SortByScoreThenRecency:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if !a.doc.CreationTime.Equal(b.doc.CreationTime) {
				return a.doc.CreationTime.After(b.doc.CreationTime)
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		return a.ContentID < b.ContentID
	})
}
