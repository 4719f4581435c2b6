package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_NoSignalsIsOne(t *testing.T) {
	got := Score(DefaultWeights(), ScoreInput{
		Categories: []string{"tech", "ai"},
		Tags:       []string{"go"},
	})
	assert.Equal(t, 1.0, got)
}

func TestScore_WorkedExamples(t *testing.T) {
	w := DefaultWeights()

	t.Run("half matching preference", func(t *testing.T) {
		got := Score(w, ScoreInput{
			Preferences: []string{"tech"},
			Categories:  []string{"tech", "ai"},
		})
		assert.InDelta(t, 2.0, got, 1e-9)
	})

	t.Run("liked and shared", func(t *testing.T) {
		got := Score(w, ScoreInput{Liked: true, Shared: true})
		assert.InDelta(t, 9.0, got, 1e-9)
	})

	t.Run("every signal", func(t *testing.T) {
		got := Score(w, ScoreInput{
			Shared: true, Liked: true, Commented: true, FollowsCreator: true,
			Preferences: []string{"tech", "ai"},
			Interests:   []string{"go"},
			Categories:  []string{"tech", "ai"},
			Tags:        []string{"go", "rust"},
		})
		// 1 + 5 + 3 + 4 + 4.5 + 2*1 + 1.5*0.5
		assert.InDelta(t, 20.25, got, 1e-9)
	})
}

func TestScore_MonotonicInEachSignal(t *testing.T) {
	w := DefaultWeights()
	base := ScoreInput{
		Preferences: []string{"tech"},
		Interests:   []string{"go"},
		Categories:  []string{"tech", "music"},
		Tags:        []string{"go", "jazz"},
	}
	before := Score(w, base)

	toggles := map[string]func(*ScoreInput){
		"share":   func(in *ScoreInput) { in.Shared = true },
		"like":    func(in *ScoreInput) { in.Liked = true },
		"comment": func(in *ScoreInput) { in.Commented = true },
		"follow":  func(in *ScoreInput) { in.FollowsCreator = true },
		"preference": func(in *ScoreInput) {
			in.Preferences = append([]string{"music"}, in.Preferences...)
		},
		"interest": func(in *ScoreInput) {
			in.Interests = append([]string{"jazz"}, in.Interests...)
		},
	}
	for name, apply := range toggles {
		t.Run(name, func(t *testing.T) {
			in := base
			apply(&in)
			assert.GreaterOrEqual(t, Score(w, in), before)
		})
	}
}

func TestScore_PreferenceContributionBounded(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		prefs, categories []string
	}{
		{nil, []string{"a"}},
		{[]string{"a"}, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{"a", "b", "c"}, []string{"a", "b"}},
		{[]string{"a"}, []string{"a", "a", "b"}},
	}
	for _, tc := range cases {
		got := Score(w, ScoreInput{Preferences: tc.prefs, Categories: tc.categories}) - 1
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, w.Preference)
	}
}

func TestMatchRatio(t *testing.T) {
	require.Equal(t, 0.0, matchRatio(nil, []string{"x"}))
	require.Equal(t, 0.0, matchRatio([]string{"x"}, nil))
	require.Equal(t, 0.5, matchRatio([]string{"x", "y"}, []string{"y"}))
	require.Equal(t, 1.0, matchRatio([]string{"x"}, []string{"x", "z"}))
}

func TestWeights(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())
	assert.Equal(t, 5.0, w.For("share"))
	assert.Equal(t, 4.5, w.For("follow"))
	assert.Equal(t, 0.0, w.For("bogus"))

	w.Like = -1
	require.Error(t, w.Validate())
}
