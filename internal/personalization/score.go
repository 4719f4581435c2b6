package personalization

// ScoreInput is everything the score of one (user, content) pair depends on.
type ScoreInput struct {
	Shared         bool
	Liked          bool
	Commented      bool
	FollowsCreator bool

	Preferences []string
	Interests   []string
	Categories  []string
	Tags        []string
}

// Score returns 1 plus the weight of every direct interaction with the
// content, the follow weight when the creator is followed, and the preference
// and interest weights scaled by the share of the content's categories and
// tags the user cares about.
func Score(w Weights, in ScoreInput) float64 {
	score := 1.0
	if in.Shared {
		score += w.Share
	}
	if in.Liked {
		score += w.Like
	}
	if in.Commented {
		score += w.Comment
	}
	if in.FollowsCreator {
		score += w.Follow
	}
	score += w.Preference * matchRatio(in.Categories, in.Preferences)
	score += w.Interest * matchRatio(in.Tags, in.Interests)
	return score
}

// matchRatio is the fraction of values present in set, in [0, 1].
func matchRatio(values, set []string) float64 {
	if len(values) == 0 || len(set) == 0 {
		return 0
	}
	lookup := make(map[string]struct{}, len(set))
	for _, s := range set {
		lookup[s] = struct{}{}
	}
	matched := 0
	for _, v := range values {
		if _, ok := lookup[v]; ok {
			matched++
		}
	}
	return float64(matched) / float64(max(1, len(values)))
}
