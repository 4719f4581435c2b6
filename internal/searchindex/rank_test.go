package searchindex

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func doc(id, creator string, age time.Duration, cats, tags []string) Document {
	return Document{ContentID: id, CreatorID: creator, Categories: cats, Tags: tags, CreationTime: now.Add(-age)}
}

func candidates(docs ...Document) []Candidate {
	out := make([]Candidate, 0, len(docs))
	for _, d := range docs {
		out = append(out, Candidate{Doc: d})
	}
	return out
}

func TestOffset(t *testing.T) {
	from, err := Offset(1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, from)
	from, err = Offset(3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, from)

	_, err = Offset(math.MaxInt/10+2, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = Offset(0, 10)
	assert.ErrorIs(t, err, model.ErrValidation)

	from, err = Offset(math.MaxInt/10, 10)
	require.NoError(t, err)
	assert.Positive(t, from)
}

func TestPage_LargeSizeDoesNotWrap(t *testing.T) {
	ranked := Rank(Query{}, candidates(doc("a", "", 0, nil, nil), doc("b", "", time.Hour, nil, nil)))
	assert.Equal(t, []string{"b"}, Page(ranked, 1, math.MaxInt))
	assert.Empty(t, Page(ranked, math.MaxInt-1, 10))
}

func TestCandidateLimit_GrowsWithPageWindow(t *testing.T) {
	assert.Equal(t, 1000, candidateLimit(1000, 0, 20))
	assert.Equal(t, 1000, candidateLimit(1000, 980, 20))
	assert.Equal(t, 1020, candidateLimit(1000, 1000, 20))
	assert.Equal(t, 5050, candidateLimit(1000, 5000, 50))
	assert.Equal(t, math.MaxInt, candidateLimit(1000, math.MaxInt-5, 10))
	assert.Equal(t, 1000, candidateLimit(1000, -1, 10))
}

func TestPage_BeyondDefaultCandidateLimit(t *testing.T) {
	const from, size = 1000, 10
	ranked := make([]Scored, candidateLimit(1000, from, size))
	for i := range ranked {
		ranked[i] = Scored{ContentID: fmt.Sprintf("c%04d", i)}
	}
	got := Page(ranked, from, size)
	require.Len(t, got, size)
	assert.Equal(t, "c1000", got[0])
	assert.Equal(t, "c1009", got[size-1])
}

func TestGaussDecay_HalfAtScale(t *testing.T) {
	g := GaussDecay{Field: FieldCreationTime, Origin: now, Scale: 7 * 24 * time.Hour, Decay: 0.5}

	assert.InDelta(t, 1.0, g.Value(doc("a", "", 0, nil, nil)), 1e-9)
	assert.InDelta(t, 0.5, g.Value(doc("a", "", 7*24*time.Hour, nil, nil)), 1e-9)

	prev := math.Inf(1)
	for days := 0; days <= 30; days++ {
		v := g.Value(doc("a", "", time.Duration(days)*24*time.Hour, nil, nil))
		require.LessOrEqual(t, v, prev, "decay must not increase with age (day %d)", days)
		prev = v
	}
}

func TestRank_MatchAllUsesBaseOne(t *testing.T) {
	q := Query{}
	ranked := Rank(q, candidates(doc("b", "x", 0, nil, nil), doc("a", "x", time.Hour, nil, nil)))
	require.Len(t, ranked, 2)
	for _, s := range ranked {
		assert.Equal(t, 1.0, s.Score)
	}
	// Equal scores fall back to content id ascending.
	assert.Equal(t, []string{"a", "b"}, Page(ranked, 0, 10))
}

func TestRank_ShouldClausesFilterAndCount(t *testing.T) {
	q := Query{Filter: Filter{
		Should: []Clause{
			{Field: FieldCategories, Values: []string{"tech"}},
			{Field: FieldTags, Values: []string{"go"}},
		},
		MinimumShouldMatch: 1,
	}}
	ranked := Rank(q, candidates(
		doc("both", "", 0, []string{"tech"}, []string{"go"}),
		doc("one", "", 0, []string{"tech"}, nil),
		doc("none", "", 0, []string{"sports"}, []string{"ball"}),
	))
	require.Len(t, ranked, 2)
	assert.Equal(t, "both", ranked[0].ContentID)
	assert.Equal(t, 2.0, ranked[0].Score)
	assert.Equal(t, 1.0, ranked[1].Score)
}

func TestRank_FunctionsSumThenMultiply(t *testing.T) {
	q := Query{
		Filter: Filter{Should: []Clause{{Field: FieldCreatorID, Values: []string{"c1"}}}, MinimumShouldMatch: 1},
		Functions: []ScoreFunction{
			{Filter: &Clause{Field: FieldCreatorID, Values: []string{"c1"}}, Weight: 0.45},
			{Decay: &GaussDecay{Field: FieldCreationTime, Origin: now, Scale: 7 * 24 * time.Hour, Decay: 0.5}},
		},
		ScoreMode: ScoreModeSum,
		BoostMode: BoostModeMultiply,
	}
	ranked := Rank(q, candidates(doc("x", "c1", 7*24*time.Hour, nil, nil)))
	require.Len(t, ranked, 1)
	// base 1 (one should clause) * (0.45 + 0.5)
	assert.InDelta(t, 0.95, ranked[0].Score, 1e-9)
}

func TestRank_NoMatchingFunctionScoresOne(t *testing.T) {
	q := Query{
		Functions: []ScoreFunction{{Filter: &Clause{Field: FieldTags, Values: []string{"rare"}}, Weight: 10}},
		BoostMode: BoostModeMultiply,
	}
	ranked := Rank(q, candidates(doc("x", "", 0, nil, []string{"common"})))
	require.Len(t, ranked, 1)
	assert.Equal(t, 1.0, ranked[0].Score)
}

func TestRank_TextQueryDropsNonMatches(t *testing.T) {
	q := Query{Text: "golang", Sort: SortByScoreThenRecency}
	cs := []Candidate{
		{Doc: doc("old", "", 48*time.Hour, nil, nil), TextScore: 2},
		{Doc: doc("new", "", time.Hour, nil, nil), TextScore: 2},
		{Doc: doc("miss", "", 0, nil, nil), TextScore: 0},
		{Doc: doc("best", "", 72*time.Hour, nil, nil), TextScore: 3},
	}
	assert.Equal(t, []string{"best", "new", "old"}, Page(Rank(q, cs), 0, 10))
}

func TestRank_SortByRecency(t *testing.T) {
	q := Query{Sort: SortByRecency}
	ids := Page(Rank(q, candidates(
		doc("b", "", 2*time.Hour, nil, nil),
		doc("a", "", time.Hour, nil, nil),
		doc("c", "", time.Hour, nil, nil),
	)), 0, 10)
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestRank_MustClauses(t *testing.T) {
	q := Query{Filter: Filter{Must: []Clause{{Field: FieldTags, Values: []string{"go"}}}}}
	ids := Page(Rank(q, candidates(
		doc("a", "", 0, nil, []string{"go", "db"}),
		doc("b", "", 0, nil, []string{"rust"}),
	)), 0, 10)
	assert.Equal(t, []string{"a"}, ids)
}

func TestPage_Bounds(t *testing.T) {
	ranked := Rank(Query{}, candidates(doc("a", "", 0, nil, nil), doc("b", "", 0, nil, nil), doc("c", "", 0, nil, nil)))
	assert.Equal(t, []string{"a", "b"}, Page(ranked, 0, 2))
	assert.Equal(t, []string{"c"}, Page(ranked, 2, 2))
	assert.Empty(t, Page(ranked, 4, 2))
	assert.Empty(t, Page(ranked, 0, 0))
}
