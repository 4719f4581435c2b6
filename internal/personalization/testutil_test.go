package personalization

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
	"github.com/glglak/elastic-personalization-poc/internal/store/memstore"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances one minute on every call so records get distinct times.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestStore() (*memstore.Store, *stepClock) {
	clock := &stepClock{now: epoch}
	return memstore.New(memstore.WithClock(clock.Now)), clock
}

func mustUser(t *testing.T, s *memstore.Store, name string, prefs, interests []string) *model.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.User{
		Username:    name,
		Email:       name + "@example.com",
		Preferences: prefs,
		Interests:   interests,
	})
	require.NoError(t, err)
	return u
}

func mustContent(t *testing.T, s *memstore.Store, creator, title string, categories, tags []string) *model.Content {
	t.Helper()
	c, err := s.Contents().Create(context.Background(), &model.Content{
		CreatorID:  creator,
		Title:      title,
		Categories: categories,
		Tags:       tags,
	})
	require.NoError(t, err)
	return c
}

func mustInteract(t *testing.T, s *memstore.Store, kind model.InteractionKind, user, target string) {
	t.Helper()
	_, err := s.Interactions().Add(context.Background(), &model.Interaction{Kind: kind, UserID: user, TargetID: target, Text: "nice"})
	require.NoError(t, err)
}

// withUsers swaps the Users repository of an otherwise working store.
type withUsers struct {
	store.Store
	users store.Users
}

func (w withUsers) Users() store.Users { return w.users }

// unreachableUsers fails every read as a lost database connection would.
type unreachableUsers struct {
	store.Users
}

func (unreachableUsers) Get(context.Context, string) (*model.User, error) {
	return nil, fmt.Errorf("get user: %w: dial tcp: connection refused", model.ErrServiceUnavailable)
}

func (unreachableUsers) GetBatch(context.Context, []string) (map[string]*model.User, error) {
	return nil, fmt.Errorf("get users: %w: dial tcp: connection refused", model.ErrServiceUnavailable)
}

// forgetfulUsers resolves single users but never finds any in batch lookups.
type forgetfulUsers struct {
	store.Users
}

func (forgetfulUsers) GetBatch(context.Context, []string) (map[string]*model.User, error) {
	return map[string]*model.User{}, nil
}
