package personalization

import (
	"time"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
)

const (
	// followBoostDivisor scales the follow factor into a per-creator boost.
	followBoostDivisor = 10.0
	recencyScale       = 7 * 24 * time.Hour
	recencyDecay       = 0.5
)

// ComposeFeedQuery builds the feed query for a user. Content matches when its
// categories intersect the preferences, its tags intersect the interests or
// its creator is followed. A user without any of those gets a match-all filter
// and the ranking falls back to recency alone.
func ComposeFeedQuery(f model.PersonalizationFactors, followedIDs []string, now time.Time) searchindex.Query {
	q := searchindex.Query{
		ScoreMode: searchindex.ScoreModeSum,
		BoostMode: searchindex.BoostModeMultiply,
		Sort:      searchindex.SortByScore,
	}

	var prefs, interests *searchindex.Clause
	if len(f.Preferences) > 0 {
		prefs = &searchindex.Clause{Field: searchindex.FieldCategories, Values: append([]string(nil), f.Preferences...)}
		q.Filter.Should = append(q.Filter.Should, *prefs)
	}
	if len(f.Interests) > 0 {
		interests = &searchindex.Clause{Field: searchindex.FieldTags, Values: append([]string(nil), f.Interests...)}
		q.Filter.Should = append(q.Filter.Should, *interests)
	}
	if len(followedIDs) > 0 {
		q.Filter.Should = append(q.Filter.Should, searchindex.Clause{
			Field:  searchindex.FieldCreatorID,
			Values: append([]string(nil), followedIDs...),
		})
	}
	if len(q.Filter.Should) > 0 {
		q.Filter.MinimumShouldMatch = 1
	}

	for _, top := range f.TopFollows {
		q.Functions = append(q.Functions, searchindex.ScoreFunction{
			Filter: &searchindex.Clause{Field: searchindex.FieldCreatorID, Values: []string{top.UserID}},
			Weight: f.FollowFactor / followBoostDivisor,
		})
	}
	if prefs != nil {
		q.Functions = append(q.Functions, searchindex.ScoreFunction{
			Filter: prefs,
			Weight: f.PreferenceFactor / float64(max(1, len(f.Preferences))),
		})
	}
	if interests != nil {
		q.Functions = append(q.Functions, searchindex.ScoreFunction{
			Filter: interests,
			Weight: f.InterestFactor / float64(max(1, len(f.Interests))),
		})
	}
	q.Functions = append(q.Functions, searchindex.ScoreFunction{
		Decay: &searchindex.GaussDecay{
			Field:  searchindex.FieldCreationTime,
			Origin: now,
			Scale:  recencyScale,
			Decay:  recencyDecay,
		},
	})
	return q
}

// PageWindow converts a 1-based page into an offset and size. Pages past the
// addressable range fail with model.ErrValidation.
func PageWindow(page, pageSize int) (from, size int, err error) {
	from, err = searchindex.Offset(page, pageSize)
	if err != nil {
		return 0, 0, err
	}
	return from, pageSize, nil
}
