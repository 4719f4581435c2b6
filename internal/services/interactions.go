package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// InteractionService records shares, likes, comments, follows and the user's
// declared preferences and interests. Repeating a share, like or follow
// returns the existing record; removing an absent record is a no-op.
type InteractionService struct {
	store store.Store
	log   zerolog.Logger
}

func NewInteractionService(s store.Store, log zerolog.Logger) *InteractionService {
	return &InteractionService{store: s, log: log.With().Str("component", "interactions").Logger()}
}

func (s *InteractionService) Share(ctx context.Context, userID, contentID string) (*model.Interaction, error) {
	return s.onContent(ctx, model.KindShare, userID, contentID, "")
}

func (s *InteractionService) Like(ctx context.Context, userID, contentID string) (*model.Interaction, error) {
	return s.onContent(ctx, model.KindLike, userID, contentID, "")
}

func (s *InteractionService) Comment(ctx context.Context, userID, contentID, text string) (*model.Interaction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("comment text is required: %w", model.ErrValidation)
	}
	return s.onContent(ctx, model.KindComment, userID, contentID, text)
}

// Follow makes userID follow followedID. Following oneself is rejected.
func (s *InteractionService) Follow(ctx context.Context, userID, followedID string) (*model.Interaction, error) {
	if err := requireIDs(userID, followedID); err != nil {
		return nil, err
	}
	if userID == followedID {
		return nil, fmt.Errorf("user %s cannot follow itself: %w", userID, model.ErrInvalidOperation)
	}
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.Users().Get(ctx, followedID); err != nil {
		return nil, err
	}
	in, err := s.store.Interactions().Add(ctx, &model.Interaction{Kind: model.KindFollow, UserID: userID, TargetID: followedID})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", userID).Str("followed_id", followedID).Msg("follow recorded")
	return in, nil
}

func (s *InteractionService) RemoveShare(ctx context.Context, userID, contentID string) error {
	return s.remove(ctx, model.KindShare, userID, contentID)
}

func (s *InteractionService) RemoveLike(ctx context.Context, userID, contentID string) error {
	return s.remove(ctx, model.KindLike, userID, contentID)
}

func (s *InteractionService) Unfollow(ctx context.Context, userID, followedID string) error {
	return s.remove(ctx, model.KindFollow, userID, followedID)
}

func (s *InteractionService) RemoveComment(ctx context.Context, commentID string) error {
	if strings.TrimSpace(commentID) == "" {
		return fmt.Errorf("commentId is required: %w", model.ErrValidation)
	}
	return s.store.Interactions().RemoveComment(ctx, commentID)
}

func (s *InteractionService) AddPreference(ctx context.Context, userID, preference string) (*model.User, error) {
	return s.editUser(ctx, userID, preference, "preference", s.store.Users().AddPreference)
}

func (s *InteractionService) RemovePreference(ctx context.Context, userID, preference string) (*model.User, error) {
	return s.editUser(ctx, userID, preference, "preference", s.store.Users().RemovePreference)
}

func (s *InteractionService) AddInterest(ctx context.Context, userID, interest string) (*model.User, error) {
	return s.editUser(ctx, userID, interest, "interest", s.store.Users().AddInterest)
}

func (s *InteractionService) RemoveInterest(ctx context.Context, userID, interest string) (*model.User, error) {
	return s.editUser(ctx, userID, interest, "interest", s.store.Users().RemoveInterest)
}

func (s *InteractionService) onContent(ctx context.Context, kind model.InteractionKind, userID, contentID, text string) (*model.Interaction, error) {
	if err := requireIDs(userID, contentID); err != nil {
		return nil, err
	}
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.Contents().Get(ctx, contentID); err != nil {
		return nil, err
	}
	in, err := s.store.Interactions().Add(ctx, &model.Interaction{Kind: kind, UserID: userID, TargetID: contentID, Text: text})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("kind", string(kind)).Str("user_id", userID).Str("content_id", contentID).Msg("interaction recorded")
	return in, nil
}

func (s *InteractionService) remove(ctx context.Context, kind model.InteractionKind, userID, targetID string) error {
	if err := requireIDs(userID, targetID); err != nil {
		return err
	}
	return s.store.Interactions().Remove(ctx, kind, userID, targetID)
}

func (s *InteractionService) editUser(ctx context.Context, userID, value, what string, edit func(context.Context, string, string) (*model.User, error)) (*model.User, error) {
	value = strings.TrimSpace(value)
	if userID == "" || value == "" {
		return nil, fmt.Errorf("userId and %s are required: %w", what, model.ErrValidation)
	}
	return edit(ctx, userID, value)
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("ids are required: %w", model.ErrValidation)
		}
	}
	return nil
}
