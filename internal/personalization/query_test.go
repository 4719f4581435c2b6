package personalization

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
)

func TestComposeFeedQuery_NoSignalsMatchesAll(t *testing.T) {
	q := ComposeFeedQuery(model.PersonalizationFactors{}, nil, epoch)

	assert.True(t, q.Filter.MatchAll())
	assert.Equal(t, searchindex.ScoreModeSum, q.ScoreMode)
	assert.Equal(t, searchindex.BoostModeMultiply, q.BoostMode)
	// Only the recency decay is left.
	require.Len(t, q.Functions, 1)
	require.NotNil(t, q.Functions[0].Decay)
	assert.Nil(t, q.Functions[0].Filter)
	assert.Equal(t, epoch, q.Functions[0].Decay.Origin)
	assert.Equal(t, 7*24*time.Hour, q.Functions[0].Decay.Scale)
	assert.Equal(t, 0.5, q.Functions[0].Decay.Decay)
}

func TestComposeFeedQuery_Personalized(t *testing.T) {
	f := model.PersonalizationFactors{
		FollowFactor:     9,
		PreferenceFactor: 4,
		InterestFactor:   4.5,
		Preferences:      []string{"tech", "ai"},
		Interests:        []string{"go", "db", "k8s"},
		TopFollows:       []model.FollowInfluence{{UserID: "c1"}, {UserID: "c2"}},
	}
	q := ComposeFeedQuery(f, []string{"c1", "c2", "c3"}, epoch)

	assert.False(t, q.Filter.MatchAll())
	assert.Equal(t, 1, q.Filter.MinimumShouldMatch)
	assert.Equal(t, []searchindex.Clause{
		{Field: searchindex.FieldCategories, Values: []string{"tech", "ai"}},
		{Field: searchindex.FieldTags, Values: []string{"go", "db", "k8s"}},
		{Field: searchindex.FieldCreatorID, Values: []string{"c1", "c2", "c3"}},
	}, q.Filter.Should)

	require.Len(t, q.Functions, 5)
	assert.Equal(t, []string{"c1"}, q.Functions[0].Filter.Values)
	assert.InDelta(t, 0.9, q.Functions[0].Weight, 1e-9)
	assert.Equal(t, []string{"c2"}, q.Functions[1].Filter.Values)
	assert.Equal(t, searchindex.FieldCategories, q.Functions[2].Filter.Field)
	assert.InDelta(t, 2.0, q.Functions[2].Weight, 1e-9)
	assert.Equal(t, searchindex.FieldTags, q.Functions[3].Filter.Field)
	assert.InDelta(t, 1.5, q.Functions[3].Weight, 1e-9)
	assert.NotNil(t, q.Functions[4].Decay)
}

func TestComposeFeedQuery_FollowsOnly(t *testing.T) {
	q := ComposeFeedQuery(model.PersonalizationFactors{FollowFactor: 4.5}, []string{"c1"}, epoch)
	require.Len(t, q.Filter.Should, 1)
	assert.Equal(t, searchindex.FieldCreatorID, q.Filter.Should[0].Field)
	// No top follows means no creator boost.
	require.Len(t, q.Functions, 1)
}

// The filter silently switches ranking from personalized to recency-only, so
// the two shapes are checked against the same documents.
func TestComposeFeedQuery_FallbackChangesRanking(t *testing.T) {
	docs := []searchindex.Candidate{
		{Doc: searchindex.Document{ContentID: "old-tech", Categories: []string{"tech"}, CreationTime: epoch.Add(-10 * 24 * time.Hour)}},
		{Doc: searchindex.Document{ContentID: "new-food", Categories: []string{"food"}, CreationTime: epoch}},
	}

	recency := searchindex.Rank(ComposeFeedQuery(model.PersonalizationFactors{}, nil, epoch), docs)
	require.Len(t, recency, 2)
	assert.Equal(t, "new-food", recency[0].ContentID)

	personalized := searchindex.Rank(ComposeFeedQuery(model.PersonalizationFactors{
		Preferences: []string{"tech"}, PreferenceFactor: 2,
	}, nil, epoch), docs)
	require.Len(t, personalized, 1)
	assert.Equal(t, "old-tech", personalized[0].ContentID)
}

func TestPageWindow(t *testing.T) {
	from, size, err := PageWindow(1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, from)
	assert.Equal(t, 20, size)
	from, size, err = PageWindow(3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, from)
	assert.Equal(t, 10, size)

	_, _, err = PageWindow(math.MaxInt/10+2, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
}
