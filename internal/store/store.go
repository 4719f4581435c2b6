package store

import (
	"context"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, memstore).
type Store interface {
	Users() Users
	Contents() Contents
	Interactions() Interactions
	HealthPing(ctx context.Context) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetBatch(ctx context.Context, userIDs []string) (map[string]*model.User, error)
	AddPreference(ctx context.Context, userID, preference string) (*model.User, error)
	RemovePreference(ctx context.Context, userID, preference string) (*model.User, error)
	AddInterest(ctx context.Context, userID, interest string) (*model.User, error)
	RemoveInterest(ctx context.Context, userID, interest string) (*model.User, error)
}

type Contents interface {
	Create(ctx context.Context, c *model.Content) (*model.Content, error)
	Update(ctx context.Context, c *model.Content) (*model.Content, error)
	Delete(ctx context.Context, contentID string) error
	Get(ctx context.Context, contentID string) (*model.Content, error)
	// GetBatch returns the contents that exist; missing ids are simply absent.
	GetBatch(ctx context.Context, contentIDs []string) (map[string]*model.Content, error)
	Stats(ctx context.Context, contentIDs []string) (map[string]model.ContentStats, error)
	// List pages through all content ordered by id, starting after req.AfterID.
	List(ctx context.Context, req model.ListContentRequest) ([]*model.Content, error)
}

type Interactions interface {
	// Add records an interaction. Share, like and follow are idempotent and
	// return the existing record when one is already present.
	Add(ctx context.Context, in *model.Interaction) (*model.Interaction, error)
	// Remove deletes the share, like or follow of userID on targetID; absent records are a no-op.
	Remove(ctx context.Context, kind model.InteractionKind, userID, targetID string) error
	// RemoveComment deletes a comment by id; absent comments are a no-op.
	RemoveComment(ctx context.Context, commentID string) error
	Count(ctx context.Context, userID string, kind model.InteractionKind) (int, error)
	// List returns the user's interactions of kind, newest first. limit<=0 returns all.
	List(ctx context.Context, userID string, kind model.InteractionKind, limit int) ([]*model.Interaction, error)
	// Matching returns the subset of targetIDs the user has an interaction of kind with.
	Matching(ctx context.Context, userID string, kind model.InteractionKind, targetIDs []string) (map[string]bool, error)
}
