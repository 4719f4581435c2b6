// Package memstore is an in-process store.Store used by the local build target and unit tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// Store keeps all records in maps guarded by a single RWMutex.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[string]*model.User
	usernames    map[string]string
	contents     map[string]*model.Content
	interactions []*record
	seq          int64
}

// record pairs an interaction with an insertion sequence used to order equal timestamps.
type record struct {
	in  model.Interaction
	seq int64
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       func() time.Time { return time.Now().UTC() },
		users:     map[string]*model.User{},
		usernames: map[string]string{},
		contents:  map[string]*model.Content{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) Users() store.Users               { return (*users)(s) }
func (s *Store) Contents() store.Contents         { return (*contents)(s) }
func (s *Store) Interactions() store.Interactions { return (*interactions)(s) }

// HealthPing always succeeds; the store lives in process memory.
func (s *Store) HealthPing(context.Context) error { return nil }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
}

func cloneUser(u *model.User) *model.User {
	out := *u
	out.Preferences = slices.Clone(u.Preferences)
	out.Interests = slices.Clone(u.Interests)
	return &out
}

func cloneContent(c *model.Content) *model.Content {
	out := *c
	out.Categories = slices.Clone(c.Categories)
	out.Tags = slices.Clone(c.Tags)
	if c.UpdateTime != nil {
		t := *c.UpdateTime
		out.UpdateTime = &t
	}
	return &out
}

// --- Users ---
type users Store

func (u *users) Create(_ context.Context, m *model.User) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	if _, ok := u.users[id]; ok {
		return nil, fmt.Errorf("user %s: %w", id, model.ErrConflict)
	}
	key := strings.ToLower(m.Username)
	if _, ok := u.usernames[key]; ok {
		return nil, fmt.Errorf("username %s: %w", m.Username, model.ErrConflict)
	}
	out := cloneUser(m)
	out.UserID = id
	if out.Preferences == nil {
		out.Preferences = []string{}
	}
	if out.Interests == nil {
		out.Interests = []string{}
	}
	out.CreationTime = u.now()
	u.users[id] = out
	u.usernames[key] = id
	return cloneUser(out), nil
}

func (u *users) Get(_ context.Context, userID string) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	got, ok := u.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	return cloneUser(got), nil
}

func (u *users) GetBatch(_ context.Context, userIDs []string) (map[string]*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	res := make(map[string]*model.User, len(userIDs))
	for _, id := range userIDs {
		if got, ok := u.users[id]; ok {
			res[id] = cloneUser(got)
		}
	}
	return res, nil
}

func (u *users) AddPreference(_ context.Context, userID, preference string) (*model.User, error) {
	return u.edit(userID, func(m *model.User) {
		if !slices.Contains(m.Preferences, preference) {
			m.Preferences = append(m.Preferences, preference)
		}
	})
}

func (u *users) RemovePreference(_ context.Context, userID, preference string) (*model.User, error) {
	return u.edit(userID, func(m *model.User) {
		m.Preferences = slices.DeleteFunc(m.Preferences, func(p string) bool { return p == preference })
	})
}

func (u *users) AddInterest(_ context.Context, userID, interest string) (*model.User, error) {
	return u.edit(userID, func(m *model.User) {
		if !slices.Contains(m.Interests, interest) {
			m.Interests = append(m.Interests, interest)
		}
	})
}

func (u *users) RemoveInterest(_ context.Context, userID, interest string) (*model.User, error) {
	return u.edit(userID, func(m *model.User) {
		m.Interests = slices.DeleteFunc(m.Interests, func(p string) bool { return p == interest })
	})
}

func (u *users) edit(userID string, fn func(*model.User)) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	got, ok := u.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	fn(got)
	return cloneUser(got), nil
}

// --- Contents ---
type contents Store

func (c *contents) Create(_ context.Context, m *model.Content) (*model.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[m.CreatorID]; !ok {
		return nil, notFound("creator", m.CreatorID)
	}
	id := m.ContentID
	if id == "" {
		id = uuid.New().String()
	}
	if _, ok := c.contents[id]; ok {
		return nil, fmt.Errorf("content %s: %w", id, model.ErrConflict)
	}
	out := cloneContent(m)
	out.ContentID = id
	out.CreationTime = c.now()
	out.UpdateTime = nil
	c.contents[id] = out
	return cloneContent(out), nil
}

func (c *contents) Update(_ context.Context, m *model.Content) (*model.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.contents[m.ContentID]
	if !ok {
		return nil, notFound("content", m.ContentID)
	}
	now := c.now()
	cur.Title = m.Title
	cur.Description = m.Description
	cur.Body = m.Body
	cur.ContentType = m.ContentType
	cur.Categories = slices.Clone(m.Categories)
	cur.Tags = slices.Clone(m.Tags)
	cur.UpdateTime = &now
	return cloneContent(cur), nil
}

func (c *contents) Delete(_ context.Context, contentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contents[contentID]; !ok {
		return notFound("content", contentID)
	}
	delete(c.contents, contentID)
	c.interactions = slices.DeleteFunc(c.interactions, func(r *record) bool {
		return r.in.Kind != model.KindFollow && r.in.TargetID == contentID
	})
	return nil
}

func (c *contents) Get(_ context.Context, contentID string) (*model.Content, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	got, ok := c.contents[contentID]
	if !ok {
		return nil, notFound("content", contentID)
	}
	return cloneContent(got), nil
}

func (c *contents) GetBatch(_ context.Context, contentIDs []string) (map[string]*model.Content, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make(map[string]*model.Content, len(contentIDs))
	for _, id := range contentIDs {
		if got, ok := c.contents[id]; ok {
			res[id] = cloneContent(got)
		}
	}
	return res, nil
}

func (c *contents) Stats(_ context.Context, contentIDs []string) (map[string]model.ContentStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := make(map[string]bool, len(contentIDs))
	for _, id := range contentIDs {
		want[id] = true
	}
	res := make(map[string]model.ContentStats, len(contentIDs))
	for _, r := range c.interactions {
		if !want[r.in.TargetID] {
			continue
		}
		st := res[r.in.TargetID]
		switch r.in.Kind {
		case model.KindShare:
			st.ShareCount++
		case model.KindLike:
			st.LikeCount++
		case model.KindComment:
			st.CommentCount++
		default:
			continue
		}
		res[r.in.TargetID] = st
	}
	return res, nil
}

func (c *contents) List(_ context.Context, req model.ListContentRequest) ([]*model.Content, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	ids := make([]string, 0, len(c.contents))
	for id := range c.contents {
		if id > req.AfterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	res := make([]*model.Content, 0, len(ids))
	for _, id := range ids {
		res = append(res, cloneContent(c.contents[id]))
	}
	return res, nil
}

// --- Interactions ---
type interactions Store

func (i *interactions) Add(_ context.Context, in *model.Interaction) (*model.Interaction, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("interaction kind %q: %w", in.Kind, model.ErrValidation)
	}
	if in.Kind == model.KindFollow && in.UserID == in.TargetID {
		return nil, fmt.Errorf("user %s cannot follow itself: %w", in.UserID, model.ErrInvalidOperation)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.users[in.UserID]; !ok {
		return nil, notFound("user", in.UserID)
	}
	if in.Kind != model.KindComment {
		for _, r := range i.interactions {
			if r.in.Kind == in.Kind && r.in.UserID == in.UserID && r.in.TargetID == in.TargetID {
				out := r.in
				return &out, nil
			}
		}
	}
	id := in.InteractionID
	if id == "" {
		id = uuid.New().String()
	}
	i.seq++
	rec := &record{in: *in, seq: i.seq}
	rec.in.InteractionID = id
	rec.in.CreationTime = i.now()
	i.interactions = append(i.interactions, rec)
	out := rec.in
	return &out, nil
}

func (i *interactions) Remove(_ context.Context, kind model.InteractionKind, userID, targetID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.interactions = slices.DeleteFunc(i.interactions, func(r *record) bool {
		return r.in.Kind == kind && r.in.UserID == userID && r.in.TargetID == targetID
	})
	return nil
}

func (i *interactions) RemoveComment(_ context.Context, commentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.interactions = slices.DeleteFunc(i.interactions, func(r *record) bool {
		return r.in.Kind == model.KindComment && r.in.InteractionID == commentID
	})
	return nil
}

func (i *interactions) Count(_ context.Context, userID string, kind model.InteractionKind) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := 0
	for _, r := range i.interactions {
		if r.in.UserID == userID && r.in.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (i *interactions) List(_ context.Context, userID string, kind model.InteractionKind, limit int) ([]*model.Interaction, error) {
	i.mu.RLock()
	var matched []*record
	for _, r := range i.interactions {
		if r.in.UserID == userID && r.in.Kind == kind {
			matched = append(matched, r)
		}
	}
	i.mu.RUnlock()

	sort.SliceStable(matched, func(a, b int) bool {
		ta, tb := matched[a].in.CreationTime, matched[b].in.CreationTime
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return matched[a].seq > matched[b].seq
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	res := make([]*model.Interaction, 0, len(matched))
	for _, r := range matched {
		out := r.in
		res = append(res, &out)
	}
	return res, nil
}

func (i *interactions) Matching(_ context.Context, userID string, kind model.InteractionKind, targetIDs []string) (map[string]bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	want := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		want[id] = true
	}
	res := make(map[string]bool)
	for _, r := range i.interactions {
		if r.in.UserID == userID && r.in.Kind == kind && want[r.in.TargetID] {
			res[r.in.TargetID] = true
		}
	}
	return res, nil
}
