package personalization

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// MaxPageSize bounds a single feed page.
const MaxPageSize = 100

// Service exposes the personalized feed, the per-item score and the factors
// behind them. It is safe for concurrent use.
type Service struct {
	store      store.Store
	index      searchindex.Index
	weights    Weights
	aggregator *Aggregator
	assembler  *Assembler
	log        zerolog.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used as the recency origin.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service. Weights are copied and never change afterwards.
func NewService(s store.Store, idx searchindex.Index, w Weights, log zerolog.Logger, opts ...Option) *Service {
	log = log.With().Str("component", "personalization").Logger()
	svc := &Service{
		store:      s,
		index:      idx,
		weights:    w,
		aggregator: NewAggregator(s),
		assembler:  NewAssembler(s, w, log),
		log:        log,
		now:        time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Weights returns the weights the service scores with.
func (s *Service) Weights() Weights { return s.weights }

// Feed returns one page of the user's personalized feed.
func (s *Service) Feed(ctx context.Context, userID string, page, pageSize int) (items []model.ContentView, err error) {
	defer observe("feed", time.Now(), &err)

	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1: %w", model.ErrValidation)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("pageSize must be between 1 and %d: %w", MaxPageSize, model.ErrValidation)
	}
	from, size, err := PageWindow(page, pageSize)
	if err != nil {
		return nil, err
	}

	sig, err := s.aggregator.Collect(ctx, userID)
	if err != nil {
		return nil, err
	}
	factors := BuildFactors(s.weights, sig)
	q := ComposeFeedQuery(factors, sig.FollowedIDs(), s.now())

	ids, err := rankedIDs(ctx, s.index, q, from, size)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Int("page", page).Msg("feed search failed")
		return []model.ContentView{}, err
	}
	items, err = s.assembler.Assemble(ctx, sig, ids)
	if err != nil {
		return nil, err
	}
	feedItems.Observe(float64(len(items)))
	s.log.Debug().
		Str("user_id", userID).
		Int("page", page).
		Int("ranked", len(ids)).
		Int("returned", len(items)).
		Bool("match_all", q.Filter.MatchAll()).
		Msg("feed assembled")
	return items, nil
}

// Score returns the personalization score of contentID for userID.
func (s *Service) Score(ctx context.Context, userID, contentID string) (score float64, err error) {
	defer observe("score", time.Now(), &err)

	var (
		user    *model.User
		content *model.Content
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.store.Users().Get(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		content, err = s.store.Contents().Get(gctx, contentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	in := ScoreInput{
		Preferences: user.Preferences,
		Interests:   user.Interests,
		Categories:  content.Categories,
		Tags:        content.Tags,
	}
	flags := map[model.InteractionKind]*bool{
		model.KindShare:   &in.Shared,
		model.KindLike:    &in.Liked,
		model.KindComment: &in.Commented,
	}
	g, gctx = errgroup.WithContext(ctx)
	for kind, dst := range flags {
		g.Go(func() error {
			m, err := s.store.Interactions().Matching(gctx, userID, kind, []string{contentID})
			if err != nil {
				return err
			}
			*dst = m[contentID]
			return nil
		})
	}
	g.Go(func() error {
		m, err := s.store.Interactions().Matching(gctx, userID, model.KindFollow, []string{content.CreatorID})
		if err != nil {
			return err
		}
		in.FollowsCreator = m[content.CreatorID]
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return Score(s.weights, in), nil
}

// Factors returns the personalization factors of userID.
func (s *Service) Factors(ctx context.Context, userID string) (f *model.PersonalizationFactors, err error) {
	defer observe("factors", time.Now(), &err)

	sig, err := s.aggregator.Collect(ctx, userID)
	if err != nil {
		return nil, err
	}
	factors := BuildFactors(s.weights, sig)
	return &factors, nil
}

func observe(op string, start time.Time, err *error) {
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(op, outcome(*err)).Inc()
}
