package personalization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store/memstore"
)

type failingIndex struct {
	*searchindex.MemoryIndex
}

func (failingIndex) Query(context.Context, searchindex.Query, int, int) ([]string, error) {
	return nil, errors.New("connection refused")
}

// staticIndex answers every query with a fixed id list.
type staticIndex struct {
	*searchindex.MemoryIndex
	ids []string
}

func (s staticIndex) Query(context.Context, searchindex.Query, int, int) ([]string, error) {
	return s.ids, nil
}

type fixture struct {
	store *memstore.Store
	index *searchindex.MemoryIndex
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, _ := newTestStore()
	idx := searchindex.NewMemoryIndex()
	return &fixture{
		store: s,
		index: idx,
		svc:   NewService(s, idx, DefaultWeights(), zerolog.Nop(), WithClock(func() time.Time { return epoch.Add(24 * time.Hour) })),
	}
}

func (f *fixture) publish(t *testing.T, creator, title string, categories, tags []string) *model.Content {
	t.Helper()
	c := mustContent(t, f.store, creator, title, categories, tags)
	require.NoError(t, f.index.IndexDocument(context.Background(), searchindex.DocumentFromContent(c)))
	return c
}

func TestService_ScoreWorkedExamples(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := mustUser(t, f.store, "u", []string{"tech"}, nil)
	creator := mustUser(t, f.store, "creator", nil, nil)
	a := f.publish(t, creator.UserID, "A", []string{"tech", "ai"}, nil)
	c := f.publish(t, creator.UserID, "C", nil, nil)

	got, err := f.svc.Score(ctx, u.UserID, a.ContentID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)

	mustInteract(t, f.store, model.KindLike, u.UserID, c.ContentID)
	mustInteract(t, f.store, model.KindShare, u.UserID, c.ContentID)
	got, err = f.svc.Score(ctx, u.UserID, c.ContentID)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, got, 1e-9)

	mustInteract(t, f.store, model.KindFollow, u.UserID, creator.UserID)
	got, err = f.svc.Score(ctx, u.UserID, c.ContentID)
	require.NoError(t, err)
	assert.InDelta(t, 13.5, got, 1e-9)
}

func TestService_ScoreWithoutSignalsIsOne(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	creator := mustUser(t, f.store, "creator", nil, nil)
	c := f.publish(t, creator.UserID, "x", []string{"tech"}, []string{"go"})

	got, err := f.svc.Score(context.Background(), u.UserID, c.ContentID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestService_ScoreNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	c := f.publish(t, u.UserID, "x", nil, nil)

	_, err := f.svc.Score(ctx, "ghost", c.ContentID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.Score(ctx, u.UserID, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestService_FactorsNotFound(t *testing.T) {
	_, err := newFixture(t).svc.Factors(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestService_Factors(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", []string{"tech"}, []string{"go"})
	creator := mustUser(t, f.store, "creator", nil, nil)
	c := f.publish(t, creator.UserID, "x", nil, nil)
	mustInteract(t, f.store, model.KindComment, u.UserID, c.ContentID)
	mustInteract(t, f.store, model.KindFollow, u.UserID, creator.UserID)

	got, err := f.svc.Factors(context.Background(), u.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.CommentFactor)
	assert.Equal(t, 4.5, got.FollowFactor)
	assert.Equal(t, 2.0, got.PreferenceFactor)
	assert.Equal(t, 1.5, got.InterestFactor)
	require.Len(t, got.TopFollows, 1)
	assert.Equal(t, "creator", got.TopFollows[0].Username)
	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, "x", got.RecentActivity[0].ContentTitle)
}

func TestService_FeedPersonalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := mustUser(t, f.store, "u", []string{"tech"}, []string{"go"})
	fav := mustUser(t, f.store, "fav", nil, nil)
	other := mustUser(t, f.store, "other", nil, nil)
	mustInteract(t, f.store, model.KindFollow, u.UserID, fav.UserID)

	tech := f.publish(t, other.UserID, "tech", []string{"tech"}, nil)
	golang := f.publish(t, other.UserID, "go", []string{"misc"}, []string{"go"})
	both := f.publish(t, other.UserID, "both", []string{"tech"}, []string{"go"})
	byFav := f.publish(t, fav.UserID, "fav", []string{"misc"}, nil)
	f.publish(t, other.UserID, "unrelated", []string{"sports"}, []string{"nba"})

	items, err := f.svc.Feed(ctx, u.UserID, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, both.ContentID, items[0].ContentID)

	ids := map[string]bool{}
	for _, it := range items {
		ids[it.ContentID] = true
		require.NotNil(t, it.PersonalizationScore)
		want, err := f.svc.Score(ctx, u.UserID, it.ContentID)
		require.NoError(t, err)
		assert.InDelta(t, want, *it.PersonalizationScore, 1e-9)
	}
	assert.True(t, ids[tech.ContentID] && ids[golang.ContentID] && ids[byFav.ContentID])
	assert.Equal(t, "other", items[0].CreatorUsername)
}

func TestService_FeedWithoutSignalsIsRecency(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	creator := mustUser(t, f.store, "creator", nil, nil)
	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, f.publish(t, creator.UserID, fmt.Sprint(i), []string{"c"}, nil).ContentID)
	}

	items, err := f.svc.Feed(context.Background(), u.UserID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ids[2], items[0].ContentID)
	assert.Equal(t, ids[0], items[2].ContentID)
	for _, it := range items {
		assert.Equal(t, 1.0, *it.PersonalizationScore)
	}
}

func TestService_FeedPagesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := mustUser(t, f.store, "u", []string{"tech"}, nil)
	creator := mustUser(t, f.store, "creator", nil, nil)
	for i := 0; i < 25; i++ {
		f.publish(t, creator.UserID, fmt.Sprint(i), []string{"tech"}, nil)
	}

	first, err := f.svc.Feed(ctx, u.UserID, 1, 10)
	require.NoError(t, err)
	second, err := f.svc.Feed(ctx, u.UserID, 2, 10)
	require.NoError(t, err)
	third, err := f.svc.Feed(ctx, u.UserID, 3, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	require.Len(t, second, 10)
	require.Len(t, third, 5)

	seen := map[string]bool{}
	for _, page := range [][]model.ContentView{first, second, third} {
		for _, it := range page {
			assert.False(t, seen[it.ContentID], "duplicate %s", it.ContentID)
			seen[it.ContentID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestService_FeedDropsIdsMissingFromStore(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	a := mustContent(t, f.store, u.UserID, "a", nil, nil)
	b := mustContent(t, f.store, u.UserID, "b", nil, nil)

	svc := NewService(f.store, staticIndex{MemoryIndex: f.index, ids: []string{b.ContentID, "stale", a.ContentID}}, DefaultWeights(), zerolog.Nop())
	items, err := svc.Feed(context.Background(), u.UserID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ContentID, items[0].ContentID)
	assert.Equal(t, a.ContentID, items[1].ContentID)
}

func TestService_FeedSearchFailure(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)

	svc := NewService(f.store, failingIndex{f.index}, DefaultWeights(), zerolog.Nop())
	items, err := svc.Feed(context.Background(), u.UserID, 1, 10)
	require.ErrorIs(t, err, model.ErrServiceUnavailable)
	assert.Empty(t, items)
}

func TestService_FeedValidation(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	ctx := context.Background()

	_, err := f.svc.Feed(ctx, u.UserID, 0, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.Feed(ctx, u.UserID, 1, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.Feed(ctx, u.UserID, 1, MaxPageSize+1)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = f.svc.Feed(ctx, "ghost", 1, 10)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestService_FeedPageBeyondAddressableRange(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	creator := mustUser(t, f.store, "c", nil, nil)
	f.publish(t, creator.UserID, "only", []string{"tech"}, nil)
	ctx := context.Background()

	items, err := f.svc.Feed(ctx, u.UserID, math.MaxInt/10+2, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, items)

	items, err = f.svc.Feed(ctx, u.UserID, math.MaxInt/10, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestService_UserStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", []string{"tech"}, nil)
	c := f.publish(t, u.UserID, "post", []string{"tech"}, nil)
	ctx := context.Background()

	svc := NewService(withUsers{Store: f.store, users: unreachableUsers{f.store.Users()}}, f.index, DefaultWeights(), zerolog.Nop())

	_, err := svc.Score(ctx, u.UserID, c.ContentID)
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	_, err = svc.Factors(ctx, u.UserID)
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	_, err = svc.Feed(ctx, u.UserID, 1, 10)
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
}

func TestService_FeedUnresolvedCreatorIsUnknown(t *testing.T) {
	f := newFixture(t)
	u := mustUser(t, f.store, "u", nil, nil)
	creator := mustUser(t, f.store, "gone", nil, nil)
	f.publish(t, creator.UserID, "orphan", nil, nil)

	svc := NewService(withUsers{Store: f.store, users: forgetfulUsers{f.store.Users()}}, f.index, DefaultWeights(), zerolog.Nop())
	items, err := svc.Feed(context.Background(), u.UserID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.UnknownCreator, items[0].CreatorUsername)
}
