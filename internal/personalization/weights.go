// Package personalization scores content for a user from weighted interaction
// signals and assembles ranked feeds from the search index.
package personalization

import (
	"fmt"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

// Weights are the per-signal multipliers. They are loaded once at startup and
// passed by value.
type Weights struct {
	Share      float64
	Comment    float64
	Like       float64
	Follow     float64
	Preference float64
	Interest   float64
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		Share:      5.0,
		Comment:    4.0,
		Like:       3.0,
		Follow:     4.5,
		Preference: 2.0,
		Interest:   1.5,
	}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"share": w.Share, "comment": w.Comment, "like": w.Like,
		"follow": w.Follow, "preference": w.Preference, "interest": w.Interest,
	} {
		if v < 0 {
			return fmt.Errorf("%s weight %v: %w", name, v, model.ErrValidation)
		}
	}
	return nil
}

// For returns the weight of an interaction kind.
func (w Weights) For(kind model.InteractionKind) float64 {
	switch kind {
	case model.KindShare:
		return w.Share
	case model.KindComment:
		return w.Comment
	case model.KindLike:
		return w.Like
	case model.KindFollow:
		return w.Follow
	}
	return 0
}
