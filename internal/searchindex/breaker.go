package searchindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

// BreakerConfig configures the circuit breaker placed in front of an Index.
type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenMaxRequests is the number of probes allowed while half-open.
	HalfOpenMaxRequests uint32
}

// Breaker wraps an Index so that a failing backend is short-circuited.
// Rejected calls fail with model.ErrServiceUnavailable.
type Breaker struct {
	next Index
	cb   *gobreaker.CircuitBreaker[any]
	log  zerolog.Logger
}

var _ Index = (*Breaker)(nil)

// NewBreaker decorates next with a circuit breaker.
func NewBreaker(next Index, cfg BreakerConfig, log zerolog.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "searchindex"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests == 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	b := &Breaker{next: next, log: log.With().Str("component", "search-breaker").Logger()}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// Context cancellation is the caller giving up, not the backend failing.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ev := b.log.Info()
			if to == gobreaker.StateOpen {
				ev = b.log.Warn()
			}
			ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return b
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) run(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("search index: %v: %w", err, model.ErrServiceUnavailable)
	}
	return v, err
}

func (b *Breaker) Query(ctx context.Context, q Query, from, size int) ([]string, error) {
	v, err := b.run(func() (any, error) { return b.next.Query(ctx, q, from, size) })
	if err != nil {
		return nil, err
	}
	ids, _ := v.([]string)
	return ids, nil
}

func (b *Breaker) IndexDocument(ctx context.Context, doc Document) error {
	_, err := b.run(func() (any, error) { return nil, b.next.IndexDocument(ctx, doc) })
	return err
}

func (b *Breaker) IndexDocuments(ctx context.Context, docs []Document) error {
	_, err := b.run(func() (any, error) { return nil, b.next.IndexDocuments(ctx, docs) })
	return err
}

func (b *Breaker) DeleteDocument(ctx context.Context, contentID string) error {
	_, err := b.run(func() (any, error) { return nil, b.next.DeleteDocument(ctx, contentID) })
	return err
}

func (b *Breaker) EnsureIndex(ctx context.Context) (bool, error) {
	v, err := b.run(func() (any, error) { return b.next.EnsureIndex(ctx) })
	if err != nil {
		return false, err
	}
	created, _ := v.(bool)
	return created, nil
}

func (b *Breaker) DeleteIndex(ctx context.Context) error {
	_, err := b.run(func() (any, error) { return nil, b.next.DeleteIndex(ctx) })
	return err
}

// HealthPing bypasses the breaker so that health probes observe the backend directly.
func (b *Breaker) HealthPing(ctx context.Context) error {
	return Ping(ctx, b.next)
}

// Ping probes idx with its HealthPinger when it has one, otherwise with a
// single-document match-all query.
func Ping(ctx context.Context, idx Index) error {
	if p, ok := idx.(HealthPinger); ok {
		return p.HealthPing(ctx)
	}
	_, err := idx.Query(ctx, Query{}, 0, 1)
	return err
}
