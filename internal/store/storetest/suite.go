package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	suffix := uuid.New().String()[:8]
	alice := mustCreateUser(t, s, "alice-"+suffix)
	bob := mustCreateUser(t, s, "bob-"+suffix)

	// Users
	if got, err := s.Users().Get(ctx, alice.UserID); err != nil || got.Username != alice.Username {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "missing-"+suffix); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}
	if batch, err := s.Users().GetBatch(ctx, []string{alice.UserID, bob.UserID, "missing"}); err != nil || len(batch) != 2 {
		t.Fatalf("GetBatch users: n=%d err=%v", len(batch), err)
	}

	// Preferences and interests
	if _, err := s.Users().AddPreference(ctx, alice.UserID, "tech"); err != nil {
		t.Fatalf("AddPreference: %v", err)
	}
	if u, err := s.Users().AddPreference(ctx, alice.UserID, "tech"); err != nil || len(u.Preferences) != 1 {
		t.Fatalf("AddPreference twice: prefs=%v err=%v", u, err)
	}
	if _, err := s.Users().AddInterest(ctx, alice.UserID, "golang"); err != nil {
		t.Fatalf("AddInterest: %v", err)
	}
	if u, err := s.Users().RemoveInterest(ctx, alice.UserID, "golang"); err != nil || len(u.Interests) != 0 {
		t.Fatalf("RemoveInterest: user=%v err=%v", u, err)
	}
	if u, err := s.Users().RemovePreference(ctx, alice.UserID, "never-added"); err != nil || len(u.Preferences) != 1 {
		t.Fatalf("RemovePreference absent: user=%v err=%v", u, err)
	}

	// Contents
	c1, err := s.Contents().Create(ctx, &model.Content{CreatorID: bob.UserID, Title: "first", Categories: []string{"tech", "ai"}, Tags: []string{"go"}})
	if err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	c2, err := s.Contents().Create(ctx, &model.Content{CreatorID: bob.UserID, Title: "second", Categories: []string{"sports"}})
	if err != nil {
		t.Fatalf("CreateContent c2: %v", err)
	}
	if got, err := s.Contents().Get(ctx, c1.ContentID); err != nil || got.Title != "first" || len(got.Categories) != 2 {
		t.Fatalf("GetContent: got=%v err=%v", got, err)
	}
	if _, err := s.Contents().Get(ctx, "missing-"+suffix); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetContent missing: want ErrNotFound, got %v", err)
	}
	batch, err := s.Contents().GetBatch(ctx, []string{c1.ContentID, "missing-" + suffix, c2.ContentID})
	if err != nil || len(batch) != 2 {
		t.Fatalf("GetBatch contents: n=%d err=%v", len(batch), err)
	}
	upd := *c1
	upd.Title = "first, revised"
	upd.Tags = []string{"go", "db"}
	if got, err := s.Contents().Update(ctx, &upd); err != nil || got.Title != "first, revised" || got.UpdateTime == nil {
		t.Fatalf("UpdateContent: got=%v err=%v", got, err)
	}

	// Interactions: idempotent share/like/follow
	sh1, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindShare, UserID: alice.UserID, TargetID: c1.ContentID})
	if err != nil {
		t.Fatalf("Add share: %v", err)
	}
	sh2, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindShare, UserID: alice.UserID, TargetID: c1.ContentID})
	if err != nil || sh2.InteractionID != sh1.InteractionID {
		t.Fatalf("Add share twice: want same record, got %v err=%v", sh2, err)
	}
	if n, err := s.Interactions().Count(ctx, alice.UserID, model.KindShare); err != nil || n != 1 {
		t.Fatalf("Count shares: n=%d err=%v", n, err)
	}
	if _, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindFollow, UserID: alice.UserID, TargetID: bob.UserID}); err != nil {
		t.Fatalf("Add follow: %v", err)
	}
	if _, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindFollow, UserID: alice.UserID, TargetID: alice.UserID}); !errors.Is(err, model.ErrInvalidOperation) {
		t.Fatalf("self follow: want ErrInvalidOperation, got %v", err)
	}

	// Comments are not deduplicated
	cm1, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindComment, UserID: alice.UserID, TargetID: c1.ContentID, Text: "nice"})
	if err != nil {
		t.Fatalf("Add comment: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // ensure monotonic creation time ordering
	cm2, err := s.Interactions().Add(ctx, &model.Interaction{Kind: model.KindComment, UserID: alice.UserID, TargetID: c1.ContentID, Text: "again"})
	if err != nil || cm2.InteractionID == cm1.InteractionID {
		t.Fatalf("Add second comment: got=%v err=%v", cm2, err)
	}
	lst, err := s.Interactions().List(ctx, alice.UserID, model.KindComment, 0)
	if err != nil || len(lst) != 2 || lst[0].InteractionID != cm2.InteractionID {
		t.Fatalf("List comments newest first: %v err=%v", lst, err)
	}
	if lst, err := s.Interactions().List(ctx, alice.UserID, model.KindComment, 1); err != nil || len(lst) != 1 {
		t.Fatalf("List comments limit: n=%d err=%v", len(lst), err)
	}

	// Matching and stats
	m, err := s.Interactions().Matching(ctx, alice.UserID, model.KindShare, []string{c1.ContentID, c2.ContentID})
	if err != nil || !m[c1.ContentID] || m[c2.ContentID] {
		t.Fatalf("Matching shares: %v err=%v", m, err)
	}
	stats, err := s.Contents().Stats(ctx, []string{c1.ContentID, c2.ContentID})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st := stats[c1.ContentID]; st.ShareCount != 1 || st.CommentCount != 2 || st.LikeCount != 0 {
		t.Fatalf("Stats c1: %+v", st)
	}
	if st := stats[c2.ContentID]; st != (model.ContentStats{}) {
		t.Fatalf("Stats c2: %+v", st)
	}

	// Removes are no-ops when absent
	if err := s.Interactions().Remove(ctx, model.KindLike, alice.UserID, c1.ContentID); err != nil {
		t.Fatalf("Remove absent like: %v", err)
	}
	if err := s.Interactions().RemoveComment(ctx, "missing-"+suffix); err != nil {
		t.Fatalf("Remove absent comment: %v", err)
	}
	if err := s.Interactions().RemoveComment(ctx, cm1.InteractionID); err != nil {
		t.Fatalf("RemoveComment: %v", err)
	}
	if err := s.Interactions().Remove(ctx, model.KindFollow, alice.UserID, bob.UserID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if n, _ := s.Interactions().Count(ctx, alice.UserID, model.KindFollow); n != 0 {
		t.Fatalf("follow count after unfollow: %d", n)
	}

	// List pages through content by id
	first, err := s.Contents().List(ctx, model.ListContentRequest{Limit: 1})
	if err != nil || len(first) != 1 {
		t.Fatalf("List page 1: n=%d err=%v", len(first), err)
	}
	rest, err := s.Contents().List(ctx, model.ListContentRequest{AfterID: first[0].ContentID, Limit: 1000})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	for _, c := range rest {
		if c.ContentID <= first[0].ContentID {
			t.Fatalf("List page 2 not after cursor: %s <= %s", c.ContentID, first[0].ContentID)
		}
	}

	// Delete content cascades to its interactions
	if err := s.Contents().Delete(ctx, c1.ContentID); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	if _, err := s.Contents().Get(ctx, c1.ContentID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetContent after delete: want ErrNotFound, got %v", err)
	}
	if n, _ := s.Interactions().Count(ctx, alice.UserID, model.KindShare); n != 0 {
		t.Fatalf("shares after content delete: %d", n)
	}
	if err := s.Contents().Delete(ctx, c1.ContentID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteContent twice: want ErrNotFound, got %v", err)
	}

	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}

func mustCreateUser(t *testing.T, s store.Store, username string) *model.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.User{Username: username, Email: username + "@example.test"})
	if err != nil {
		t.Fatalf("CreateUser %s: %v", username, err)
	}
	if u.UserID == "" {
		t.Fatalf("CreateUser %s: empty id", username)
	}
	return u
}
