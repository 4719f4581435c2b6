package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

const (
	defaultReindexPageSize = 200
	reindexMaxRetries      = 4
	// MaxSearchPageSize bounds a single page of content search results.
	MaxSearchPageSize = 100
)

// ContentService orchestrates content use cases and keeps the search index in step.
type ContentService struct {
	store store.Store
	idx   searchindex.Index
	log   zerolog.Logger

	reindexPageSize int
	retryInterval   time.Duration
}

func NewContentService(s store.Store, idx searchindex.Index, log zerolog.Logger) *ContentService {
	return &ContentService{
		store:           s,
		idx:             idx,
		log:             log.With().Str("component", "content").Logger(),
		reindexPageSize: defaultReindexPageSize,
		retryInterval:   500 * time.Millisecond,
	}
}

func (s *ContentService) CreateContent(ctx context.Context, c *model.Content) (*model.ContentView, error) {
	if err := validateContent(c); err != nil {
		return nil, err
	}
	created, err := s.store.Contents().Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.indexBestEffort(ctx, created)
	return s.view(ctx, created)
}

func (s *ContentService) GetContent(ctx context.Context, contentID string) (*model.ContentView, error) {
	c, err := s.store.Contents().Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// UpdateContent replaces the editable fields; the creator never changes.
func (s *ContentService) UpdateContent(ctx context.Context, c *model.Content) (*model.ContentView, error) {
	if c == nil || strings.TrimSpace(c.ContentID) == "" {
		return nil, fmt.Errorf("contentId is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", model.ErrValidation)
	}
	updated, err := s.store.Contents().Update(ctx, c)
	if err != nil {
		return nil, err
	}
	s.indexBestEffort(ctx, updated)
	return s.view(ctx, updated)
}

// DeleteContent removes the content and its share, like and comment records.
func (s *ContentService) DeleteContent(ctx context.Context, contentID string) error {
	if err := s.store.Contents().Delete(ctx, contentID); err != nil {
		return err
	}
	if s.idx == nil {
		return nil
	}
	if err := s.idx.DeleteDocument(ctx, contentID); err != nil {
		// The outbox (postgres) or the next reindex removes the document.
		s.log.Warn().Err(err).Str("content_id", contentID).Msg("index delete failed")
	}
	return nil
}

// Search ranks content by free-text relevance over title, description, body,
// tags and categories; equal scores go newest first.
func (s *ContentService) Search(ctx context.Context, text string, page, pageSize int) ([]model.ContentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("search text is required: %w", model.ErrValidation)
	}
	return s.query(ctx, searchindex.Query{Text: text, Sort: searchindex.SortByScoreThenRecency}, page, pageSize)
}

func (s *ContentService) ByCategory(ctx context.Context, category string, page, pageSize int) ([]model.ContentView, error) {
	return s.byField(ctx, searchindex.FieldCategories, category, page, pageSize)
}

func (s *ContentService) ByTag(ctx context.Context, tag string, page, pageSize int) ([]model.ContentView, error) {
	return s.byField(ctx, searchindex.FieldTags, tag, page, pageSize)
}

func (s *ContentService) ByCreator(ctx context.Context, creatorID string, page, pageSize int) ([]model.ContentView, error) {
	return s.byField(ctx, searchindex.FieldCreatorID, creatorID, page, pageSize)
}

// EnsureIndex creates the search index when it is missing and reports whether it did.
func (s *ContentService) EnsureIndex(ctx context.Context) (bool, error) {
	if s.idx == nil {
		return false, fmt.Errorf("search index not configured: %w", model.ErrServiceUnavailable)
	}
	return s.idx.EnsureIndex(ctx)
}

// Reindex streams every stored content item into the search index in batches
// and returns how many documents were uploaded.
func (s *ContentService) Reindex(ctx context.Context) (int, error) {
	if s.idx == nil {
		return 0, fmt.Errorf("search index not configured: %w", model.ErrServiceUnavailable)
	}
	if _, err := s.idx.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	total := 0
	after := ""
	for {
		page, err := s.store.Contents().List(ctx, model.ListContentRequest{AfterID: after, Limit: s.reindexPageSize})
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}
		docs := make([]searchindex.Document, 0, len(page))
		for _, c := range page {
			docs = append(docs, searchindex.DocumentFromContent(c))
		}
		if err := s.uploadWithRetry(ctx, docs); err != nil {
			return total, fmt.Errorf("reindex batch after %q: %w", after, err)
		}
		total += len(docs)
		after = page[len(page)-1].ContentID
		s.log.Debug().Int("batch", len(docs)).Int("total", total).Msg("reindex batch uploaded")
		if len(page) < s.reindexPageSize {
			break
		}
	}
	s.log.Info().Int("documents", total).Msg("reindex complete")
	return total, nil
}

func (s *ContentService) uploadWithRetry(ctx context.Context, docs []searchindex.Document) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.retryInterval
	exp.Multiplier = 2
	exp.MaxInterval = 10 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, reindexMaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.idx.IndexDocuments(ctx, docs)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Int("batch", len(docs)).Msg("index upload failed")
		return err
	}, policy)
}

func (s *ContentService) byField(ctx context.Context, field, value string, page, pageSize int) ([]model.ContentView, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%s is required: %w", field, model.ErrValidation)
	}
	q := searchindex.Query{
		Filter: searchindex.Filter{Must: []searchindex.Clause{{Field: field, Values: []string{value}}}},
		Sort:   searchindex.SortByRecency,
	}
	return s.query(ctx, q, page, pageSize)
}

func (s *ContentService) query(ctx context.Context, q searchindex.Query, page, pageSize int) ([]model.ContentView, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1: %w", model.ErrValidation)
	}
	if pageSize < 1 || pageSize > MaxSearchPageSize {
		return nil, fmt.Errorf("pageSize must be between 1 and %d: %w", MaxSearchPageSize, model.ErrValidation)
	}
	from, err := searchindex.Offset(page, pageSize)
	if err != nil {
		return nil, err
	}
	if s.idx == nil {
		return nil, fmt.Errorf("search index not configured: %w", model.ErrServiceUnavailable)
	}
	ids, err := s.idx.Query(ctx, q, from, pageSize)
	if err != nil {
		s.log.Error().Err(err).Msg("content search failed")
		if errors.Is(err, model.ErrServiceUnavailable) {
			return []model.ContentView{}, err
		}
		return []model.ContentView{}, fmt.Errorf("content search: %w: %w", model.ErrServiceUnavailable, err)
	}
	return s.views(ctx, ids)
}

// views hydrates ids in order, dropping ids that are no longer stored.
func (s *ContentService) views(ctx context.Context, ids []string) ([]model.ContentView, error) {
	if len(ids) == 0 {
		return []model.ContentView{}, nil
	}
	contents, err := s.store.Contents().GetBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Contents().Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	creatorIDs := make([]string, 0, len(contents))
	for _, c := range contents {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	creators, err := s.store.Users().GetBatch(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]model.ContentView, 0, len(ids))
	for _, id := range ids {
		c, ok := contents[id]
		if !ok {
			continue
		}
		v := model.ContentView{Content: *c, ContentStats: stats[id], CreatorUsername: model.UnknownCreator}
		if u, ok := creators[c.CreatorID]; ok {
			v.CreatorUsername = u.Username
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *ContentService) view(ctx context.Context, c *model.Content) (*model.ContentView, error) {
	views, err := s.views(ctx, []string{c.ContentID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("content %s: %w", c.ContentID, model.ErrNotFound)
	}
	return &views[0], nil
}

func (s *ContentService) indexBestEffort(ctx context.Context, c *model.Content) {
	if s.idx == nil {
		return
	}
	if err := s.idx.IndexDocument(ctx, searchindex.DocumentFromContent(c)); err != nil {
		s.log.Warn().Err(err).Str("content_id", c.ContentID).Msg("index update failed")
	}
}

func validateContent(c *model.Content) error {
	if c == nil {
		return fmt.Errorf("content is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(c.CreatorID) == "" {
		return fmt.Errorf("creatorId is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required: %w", model.ErrValidation)
	}
	return nil
}
