package searchindex

import (
	"time"
)

// Document fields that clauses and functions can target.
const (
	FieldCategories   = "categories"
	FieldTags         = "tags"
	FieldCreatorID    = "creatorId"
	FieldCreationTime = "creationTime"
)

// TextFields lists the fields searched by free-text queries with their boosts.
var TextFields = []TextField{
	{Name: "title", Boost: 2},
	{Name: "description", Boost: 1.5},
	{Name: "body", Boost: 1},
	{Name: FieldTags, Boost: 1.5},
	{Name: FieldCategories, Boost: 1.5},
}

// TextField is a searchable field and its relevance boost.
type TextField struct {
	Name  string
	Boost float64
}

// Clause matches documents whose Field holds at least one of Values.
type Clause struct {
	Field  string
	Values []string
}

// Filter selects documents. Every Must clause has to match; when Should is
// non-empty at least MinimumShouldMatch of its clauses have to match.
type Filter struct {
	Must               []Clause
	Should             []Clause
	MinimumShouldMatch int
}

// MatchAll reports whether the filter places no restriction on documents.
func (f Filter) MatchAll() bool { return len(f.Must) == 0 && len(f.Should) == 0 }

// GaussDecay lowers a score as the distance between Field and Origin grows.
// At a distance of Scale the value equals Decay.
type GaussDecay struct {
	Field  string
	Origin time.Time
	Scale  time.Duration
	Decay  float64
}

// ScoreFunction contributes to the function score of documents matching Filter.
// A nil Filter matches every document. A function carries either a constant
// Weight or a Decay.
type ScoreFunction struct {
	Filter *Clause
	Weight float64
	Decay  *GaussDecay
}

// ScoreMode combines the values of the matching functions.
type ScoreMode string

// BoostMode combines the function score with the base relevance.
type BoostMode string

const (
	ScoreModeSum      ScoreMode = "sum"
	BoostModeMultiply BoostMode = "multiply"
)

// SortOrder decides how scored documents are ordered.
type SortOrder int

const (
	// SortByScore orders by score descending, then content id ascending.
	SortByScore SortOrder = iota
	// SortByScoreThenRecency orders by score, then newest first, then content id.
	SortByScoreThenRecency
	// SortByRecency orders newest first, then content id ascending.
	SortByRecency
)

// Query is a function-score query: a filter, an optional free-text match
// providing the base relevance, and boost functions.
type Query struct {
	Text      string
	Filter    Filter
	Functions []ScoreFunction
	ScoreMode ScoreMode
	BoostMode BoostMode
	Sort      SortOrder
}
