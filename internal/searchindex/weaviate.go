package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const weaviateDateLayout = "2006-01-02T15:04:05.000Z"

// WeaviateOptions configures the Weaviate-backed index.
type WeaviateOptions struct {
	// BaseURL is host:port without scheme, e.g. "localhost:8082".
	BaseURL   string
	ClassName string
	// CandidateLimit is the minimum number of filtered documents fetched per
	// query before function scores are applied in process. Deeper pages raise
	// it to from+size.
	CandidateLimit int
	BatchSize      int
}

// weavIndex implements Index on a single non-multi-tenant Weaviate class.
// Weaviate has no function-score query, so the filter and BM25 relevance run
// server side and Rank applies the boost functions to the returned candidates.
type weavIndex struct {
	client *weaviate.Client
	http   *resty.Client
	opts   WeaviateOptions
	log    zerolog.Logger
}

// NewWeaviateIndex constructs an Index backed by Weaviate.
func NewWeaviateIndex(opts WeaviateOptions, log zerolog.Logger) (Index, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("weaviate baseURL missing")
	}
	if opts.ClassName == "" {
		opts.ClassName = "Content"
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	cl, err := weaviate.NewClient(weaviate.Config{Scheme: "http", Host: opts.BaseURL})
	if err != nil {
		return nil, err
	}
	base := opts.BaseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &weavIndex{
		client: cl,
		http:   resty.New().SetBaseURL(base),
		opts:   opts,
		log:    log.With().Str("component", "weaviate").Logger(),
	}, nil
}

func (w *weavIndex) Query(ctx context.Context, q Query, from, size int) ([]string, error) {
	limit := candidateLimit(w.opts.CandidateLimit, from, size)
	req := w.client.GraphQL().Get().
		WithClassName(w.opts.ClassName).
		WithLimit(limit).
		WithFields(
			gql.Field{Name: "contentId"},
			gql.Field{Name: "creatorId"},
			gql.Field{Name: "categories"},
			gql.Field{Name: "tags"},
			gql.Field{Name: "creationTime"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		)
	if where := buildWhere(q.Filter); where != nil {
		req = req.WithWhere(where)
	}
	if q.Text != "" {
		props := make([]string, 0, len(TextFields))
		for _, f := range TextFields {
			props = append(props, fmt.Sprintf("%s^%s", f.Name, strconv.FormatFloat(f.Boost, 'f', -1, 64)))
		}
		req = req.WithBM25((&gql.BM25ArgumentBuilder{}).WithQuery(q.Text).WithProperties(props...))
	} else {
		// Keep the newest documents when the candidate limit truncates.
		req = req.WithSort(gql.Sort{Path: []string{FieldCreationTime}, Order: gql.Desc})
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	candidates := w.parseCandidates(resp.Data["Get"], q.Text != "")
	if len(candidates) >= limit {
		w.log.Warn().Int("limit", limit).Msg("query candidates truncated")
	}
	return Page(Rank(q, candidates), from, size), nil
}

// candidateLimit is the number of candidates needed to rank the window
// [from, from+size), never less than floor.
func candidateLimit(floor, from, size int) int {
	if from < 0 || size < 0 {
		return floor
	}
	if from > math.MaxInt-size {
		return math.MaxInt
	}
	if want := from + size; want > floor {
		return want
	}
	return floor
}

func (w *weavIndex) parseCandidates(get interface{}, text bool) []Candidate {
	getData, ok := get.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := getData[w.opts.ClassName].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Candidate, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		doc := Document{
			ContentID:  stringProp(m, "contentId"),
			CreatorID:  stringProp(m, "creatorId"),
			Categories: stringsProp(m, "categories"),
			Tags:       stringsProp(m, "tags"),
		}
		if doc.ContentID == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, stringProp(m, "creationTime")); err == nil {
			doc.CreationTime = ts
		}
		c := Candidate{Doc: doc}
		if text {
			c.TextScore = additionalScore(m)
		}
		out = append(out, c)
	}
	return out
}

func (w *weavIndex) IndexDocument(ctx context.Context, doc Document) error {
	return w.IndexDocuments(ctx, []Document{doc})
}

// IndexDocuments upserts documents through the batch API; objects with an
// existing id are replaced.
func (w *weavIndex) IndexDocuments(ctx context.Context, docs []Document) error {
	for offset := 0; offset < len(docs); offset += w.opts.BatchSize {
		end := min(offset+w.opts.BatchSize, len(docs))
		objs := make([]*models.Object, 0, end-offset)
		for _, d := range docs[offset:end] {
			objs = append(objs, &models.Object{
				Class:      w.opts.ClassName,
				ID:         objectID(d.ContentID),
				Properties: documentProperties(d),
			})
		}
		res, err := w.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			w.log.Error().Err(err).Int("batch_size", len(objs)).Str("first_content_id", docs[offset].ContentID).Msg("batch upload failed")
			return err
		}
		for _, r := range res {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return fmt.Errorf("weaviate batch object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
			}
		}
	}
	return nil
}

func (w *weavIndex) DeleteDocument(ctx context.Context, contentID string) error {
	err := w.client.Data().Deleter().WithClassName(w.opts.ClassName).WithID(objectID(contentID).String()).Do(ctx)
	var werr *fault.WeaviateClientError
	if errors.As(err, &werr) && werr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (w *weavIndex) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(w.opts.ClassName).Do(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := w.client.Schema().ClassCreator().WithClass(contentClass(w.opts.ClassName)).Do(ctx); err != nil {
		return false, fmt.Errorf("create class %s: %w", w.opts.ClassName, err)
	}
	w.log.Info().Str("class", w.opts.ClassName).Msg("search index created")
	return true, nil
}

func (w *weavIndex) DeleteIndex(ctx context.Context) error {
	return w.client.Schema().ClassDeleter().WithClassName(w.opts.ClassName).Do(ctx)
}

// HealthPing implements health.HealthPinger for weaviate-based index.
// It calls GET /v1/meta and expects 200 OK.
func (w *weavIndex) HealthPing(ctx context.Context) error {
	resp, err := w.http.R().SetContext(ctx).Get("/v1/meta")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode())
	}
	return nil
}

// buildWhere translates the filter; each clause becomes a ContainsAny on its field.
func buildWhere(f Filter) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	for _, c := range f.Must {
		operands = append(operands, containsAny(c))
	}
	if len(f.Should) == 1 {
		operands = append(operands, containsAny(f.Should[0]))
	} else if len(f.Should) > 1 {
		should := make([]*filters.WhereBuilder, 0, len(f.Should))
		for _, c := range f.Should {
			should = append(should, containsAny(c))
		}
		operands = append(operands, filters.Where().WithOperator(filters.Or).WithOperands(should))
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func containsAny(c Clause) *filters.WhereBuilder {
	return filters.Where().WithPath([]string{c.Field}).WithOperator(filters.ContainsAny).WithValueText(c.Values...)
}

// objectID maps a content id onto a Weaviate object id; non-UUID ids get a
// stable name-based UUID.
func objectID(contentID string) strfmt.UUID {
	if id, err := uuid.Parse(contentID); err == nil {
		return strfmt.UUID(id.String())
	}
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("content:"+contentID)).String())
}

func documentProperties(d Document) map[string]interface{} {
	return map[string]interface{}{
		"contentId":    d.ContentID,
		"creatorId":    d.CreatorID,
		"title":        d.Title,
		"description":  d.Description,
		"body":         d.Body,
		"contentType":  d.ContentType,
		"categories":   nonNil(d.Categories),
		"tags":         nonNil(d.Tags),
		"creationTime": d.CreationTime.UTC().Format(weaviateDateLayout),
	}
}

func contentClass(name string) *models.Class {
	return &models.Class{
		Class:      name,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "contentId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "creatorId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "title", DataType: []string{"text"}},
			{Name: "description", DataType: []string{"text"}},
			{Name: "body", DataType: []string{"text"}},
			{Name: "contentType", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "categories", DataType: []string{"text[]"}, Tokenization: "field"},
			{Name: "tags", DataType: []string{"text[]"}, Tokenization: "field"},
			{Name: "creationTime", DataType: []string{"date"}},
		},
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func stringProp(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringsProp(m map[string]interface{}, key string) []string {
	raw, _ := m[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func additionalScore(m map[string]interface{}) float64 {
	add, ok := m["_additional"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := add["score"].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// formatGraphQLErrors returns compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
