package searchindex

import (
	"context"
	"time"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

// Document is the searchable projection of a content item.
type Document struct {
	ContentID    string    `json:"contentId"`
	CreatorID    string    `json:"creatorId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Body         string    `json:"body"`
	ContentType  string    `json:"contentType"`
	Categories   []string  `json:"categories"`
	Tags         []string  `json:"tags"`
	CreationTime time.Time `json:"creationTime"`
}

// DocumentFromContent projects a stored content item into an index document.
func DocumentFromContent(c *model.Content) Document {
	return Document{
		ContentID:    c.ContentID,
		CreatorID:    c.CreatorID,
		Title:        c.Title,
		Description:  c.Description,
		Body:         c.Body,
		ContentType:  c.ContentType,
		Categories:   append([]string(nil), c.Categories...),
		Tags:         append([]string(nil), c.Tags...),
		CreationTime: c.CreationTime,
	}
}

// Index executes ranked content queries and maintains the content documents.
type Index interface {
	// Query returns content ids in rank order starting at from. Equal scores
	// are ordered by content id so that pages never overlap.
	Query(ctx context.Context, q Query, from, size int) ([]string, error)

	IndexDocument(ctx context.Context, doc Document) error
	IndexDocuments(ctx context.Context, docs []Document) error
	// DeleteDocument removes a document; deleting an unknown id is not an error.
	DeleteDocument(ctx context.Context, contentID string) error

	// EnsureIndex creates the index when missing and reports whether it did so.
	EnsureIndex(ctx context.Context) (bool, error)
	DeleteIndex(ctx context.Context) error
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
