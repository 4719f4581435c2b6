package personalization

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// FollowInfluenceNormalizer divides a followed user's weighted activity
// before it is added to the follow weight. It is a fixed constant.
const FollowInfluenceNormalizer = 10.0

const (
	maxInfluentialFollows = 5
	recentPerKind         = 3
	maxRecentInteractions = 5
	// followLookupConcurrency bounds parallel count queries for followed users.
	followLookupConcurrency = 8
)

// UnknownContentTitle labels recent interactions whose content no longer exists.
const UnknownContentTitle = "Unknown"

var recentKinds = []model.InteractionKind{model.KindShare, model.KindComment, model.KindLike}

// FollowActivity is a followed user and their own interaction counts.
type FollowActivity struct {
	UserID   string
	Username string
	Shares   int
	Comments int
	Likes    int
}

// RecentInteraction is one of the user's latest shares, comments or likes.
type RecentInteraction struct {
	Kind         model.InteractionKind
	ContentID    string
	ContentTitle string
	// ContentCreated is the creation time of the referenced content; zero when it no longer exists.
	ContentCreated time.Time
	CreationTime   time.Time
}

// Signals is the raw per-user aggregation behind factors and feed queries.
type Signals struct {
	UserID      string
	Shares      int
	Likes       int
	Comments    int
	Follows     int
	Preferences []string
	Interests   []string
	// Followed lists every followed user, newest follow first.
	Followed []FollowActivity
	// Recent holds up to three of the newest shares, comments and likes each.
	Recent []RecentInteraction
}

// FollowedIDs returns the ids of all followed users.
func (s *Signals) FollowedIDs() []string {
	ids := make([]string, 0, len(s.Followed))
	for _, f := range s.Followed {
		ids = append(ids, f.UserID)
	}
	return ids
}

// Aggregator reads signals from the store. It holds no mutable state.
type Aggregator struct {
	store store.Store
}

// NewAggregator returns an Aggregator reading from s.
func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Collect gathers the signals of userID. It fails with model.ErrNotFound when
// the user does not exist and aborts on the first store error.
func (a *Aggregator) Collect(ctx context.Context, userID string) (*Signals, error) {
	user, err := a.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sig := &Signals{
		UserID:      user.UserID,
		Preferences: append([]string(nil), user.Preferences...),
		Interests:   append([]string(nil), user.Interests...),
	}

	var (
		follows []*model.Interaction
		recent  = make([][]*model.Interaction, len(recentKinds))
	)
	g, gctx := errgroup.WithContext(ctx)
	counts := map[model.InteractionKind]*int{
		model.KindShare:   &sig.Shares,
		model.KindLike:    &sig.Likes,
		model.KindComment: &sig.Comments,
	}
	for kind, dst := range counts {
		g.Go(func() error {
			n, err := a.store.Interactions().Count(gctx, userID, kind)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	g.Go(func() error {
		var err error
		follows, err = a.store.Interactions().List(gctx, userID, model.KindFollow, 0)
		return err
	})
	for i, kind := range recentKinds {
		g.Go(func() error {
			var err error
			recent[i], err = a.store.Interactions().List(gctx, userID, kind, recentPerKind)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sig.Follows = len(follows)

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sig.Followed, err = a.followActivity(gctx, follows)
		return err
	})
	g.Go(func() error {
		var err error
		sig.Recent, err = a.recentInteractions(gctx, recent)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sig, nil
}

func (a *Aggregator) followActivity(ctx context.Context, follows []*model.Interaction) ([]FollowActivity, error) {
	out := make([]FollowActivity, len(follows))
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.TargetID
		out[i].UserID = f.TargetID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(followLookupConcurrency)
	var names map[string]*model.User
	g.Go(func() error {
		var err error
		names, err = a.store.Users().GetBatch(gctx, ids)
		return err
	})
	for i := range out {
		fa := &out[i]
		g.Go(func() error {
			var err error
			if fa.Shares, err = a.store.Interactions().Count(gctx, fa.UserID, model.KindShare); err != nil {
				return err
			}
			if fa.Comments, err = a.store.Interactions().Count(gctx, fa.UserID, model.KindComment); err != nil {
				return err
			}
			fa.Likes, err = a.store.Interactions().Count(gctx, fa.UserID, model.KindLike)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range out {
		if u, ok := names[out[i].UserID]; ok {
			out[i].Username = u.Username
		}
	}
	return out, nil
}

func (a *Aggregator) recentInteractions(ctx context.Context, perKind [][]*model.Interaction) ([]RecentInteraction, error) {
	var ids []string
	for _, list := range perKind {
		for _, in := range list {
			ids = append(ids, in.TargetID)
		}
	}
	contents, err := a.store.Contents().GetBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []RecentInteraction
	for _, list := range perKind {
		for _, in := range list {
			ri := RecentInteraction{
				Kind:         in.Kind,
				ContentID:    in.TargetID,
				ContentTitle: UnknownContentTitle,
				CreationTime: in.CreationTime,
			}
			if c, ok := contents[in.TargetID]; ok {
				ri.ContentTitle = c.Title
				ri.ContentCreated = c.CreationTime
			}
			out = append(out, ri)
		}
	}
	return out, nil
}

// InfluenceScore ranks a followed user by the follow weight plus their own
// weighted activity scaled down by FollowInfluenceNormalizer.
func InfluenceScore(w Weights, f FollowActivity) float64 {
	activity := float64(f.Shares)*w.Share + float64(f.Comments)*w.Comment + float64(f.Likes)*w.Like
	return w.Follow + activity/FollowInfluenceNormalizer
}

// BuildFactors derives the personalization factors from collected signals.
func BuildFactors(w Weights, s *Signals) model.PersonalizationFactors {
	f := model.PersonalizationFactors{
		UserID:           s.UserID,
		ShareFactor:      w.Share * float64(s.Shares),
		LikeFactor:       w.Like * float64(s.Likes),
		CommentFactor:    w.Comment * float64(s.Comments),
		FollowFactor:     w.Follow * float64(s.Follows),
		PreferenceFactor: w.Preference * float64(len(s.Preferences)),
		InterestFactor:   w.Interest * float64(len(s.Interests)),
		Preferences:      nonNil(s.Preferences),
		Interests:        nonNil(s.Interests),
		TopFollows:       topFollows(w, s.Followed),
		RecentActivity:   topRecent(w, s.Recent),
	}
	return f
}

func topFollows(w Weights, followed []FollowActivity) []model.FollowInfluence {
	out := make([]model.FollowInfluence, 0, len(followed))
	for _, f := range followed {
		out = append(out, model.FollowInfluence{
			UserID:         f.UserID,
			Username:       f.Username,
			InfluenceScore: InfluenceScore(w, f),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InfluenceScore > out[j].InfluenceScore })
	if len(out) > maxInfluentialFollows {
		out = out[:maxInfluentialFollows]
	}
	return out
}

func topRecent(w Weights, recent []RecentInteraction) []model.InteractionInfluence {
	type ranked struct {
		model.InteractionInfluence
		contentCreated time.Time
	}
	rs := make([]ranked, 0, len(recent))
	for _, r := range recent {
		rs = append(rs, ranked{
			InteractionInfluence: model.InteractionInfluence{
				Kind:           r.Kind,
				ContentID:      r.ContentID,
				ContentTitle:   r.ContentTitle,
				InfluenceScore: w.For(r.Kind),
				CreationTime:   r.CreationTime,
			},
			contentCreated: r.ContentCreated,
		})
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].InfluenceScore != rs[j].InfluenceScore {
			return rs[i].InfluenceScore > rs[j].InfluenceScore
		}
		return rs[i].contentCreated.After(rs[j].contentCreated)
	})
	if len(rs) > maxRecentInteractions {
		rs = rs[:maxRecentInteractions]
	}
	out := make([]model.InteractionInfluence, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.InteractionInfluence)
	}
	return out
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
