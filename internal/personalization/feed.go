package personalization

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// Assembler turns ranked content ids into scored feed items.
type Assembler struct {
	store   store.Store
	weights Weights
	log     zerolog.Logger
}

// NewAssembler returns an Assembler reading from s.
func NewAssembler(s store.Store, w Weights, log zerolog.Logger) *Assembler {
	return &Assembler{store: s, weights: w, log: log}
}

// Assemble hydrates ids in one batch lookup, keeps the ranked order, drops
// ids missing from the store and attaches each item's personalization score.
func (a *Assembler) Assemble(ctx context.Context, sig *Signals, ids []string) ([]model.ContentView, error) {
	if len(ids) == 0 {
		return []model.ContentView{}, nil
	}

	var (
		contents  map[string]*model.Content
		stats     map[string]model.ContentStats
		touched   = make(map[model.InteractionKind]map[string]bool, 3)
		kinds     = []model.InteractionKind{model.KindShare, model.KindLike, model.KindComment}
		perKind   = make([]map[string]bool, len(kinds))
		creatorOf map[string]*model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contents, err = a.store.Contents().GetBatch(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.store.Contents().Stats(gctx, ids)
		return err
	})
	for i, kind := range kinds {
		g.Go(func() error {
			var err error
			perKind[i], err = a.store.Interactions().Matching(gctx, sig.UserID, kind, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, kind := range kinds {
		touched[kind] = perKind[i]
	}

	creatorIDs := make([]string, 0, len(contents))
	for _, c := range contents {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	creatorOf, err := a.store.Users().GetBatch(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	followed := make(map[string]bool, len(sig.Followed))
	for _, f := range sig.Followed {
		followed[f.UserID] = true
	}

	out := make([]model.ContentView, 0, len(ids))
	for _, id := range ids {
		c, ok := contents[id]
		if !ok {
			droppedItemsTotal.Inc()
			a.log.Debug().Str("content_id", id).Msg("ranked content missing from store")
			continue
		}
		score := Score(a.weights, ScoreInput{
			Shared:         touched[model.KindShare][id],
			Liked:          touched[model.KindLike][id],
			Commented:      touched[model.KindComment][id],
			FollowsCreator: followed[c.CreatorID],
			Preferences:    sig.Preferences,
			Interests:      sig.Interests,
			Categories:     c.Categories,
			Tags:           c.Tags,
		})
		view := model.ContentView{Content: *c, ContentStats: stats[id], CreatorUsername: model.UnknownCreator, PersonalizationScore: &score}
		if u, ok := creatorOf[c.CreatorID]; ok {
			view.CreatorUsername = u.Username
		}
		out = append(out, view)
	}
	return out, nil
}

// rankedIDs runs the feed query. Failures are reported as ErrServiceUnavailable.
func rankedIDs(ctx context.Context, idx searchindex.Index, q searchindex.Query, from, size int) ([]string, error) {
	ids, err := idx.Query(ctx, q, from, size)
	if err != nil {
		searchFailuresTotal.Inc()
		return nil, fmt.Errorf("feed query: %w: %w", model.ErrServiceUnavailable, err)
	}
	return ids, nil
}
