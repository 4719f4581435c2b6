package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/config"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
)

// NewSearchIndex creates the search index selected by cfg.SearchBackend,
// wrapped in a circuit breaker. Weaviate class creation runs asynchronously
// with a short timeout so startup is not blocked on the index.
func NewSearchIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*searchindex.Breaker, error) {
	var idx searchindex.Index
	switch cfg.SearchBackend {
	case "memory":
		idx = searchindex.NewMemoryIndex()
	case "weaviate":
		if cfg.WeaviateURL == "" {
			return nil, fmt.Errorf("search index URL not configured - required for service operation")
		}
		w, err := searchindex.NewWeaviateIndex(searchindex.WeaviateOptions{
			BaseURL:        cfg.WeaviateURL,
			ClassName:      cfg.SearchClass,
			CandidateLimit: cfg.SearchCandidateLimit,
		}, log)
		if err != nil {
			return nil, err
		}
		idx = w
	default:
		return nil, fmt.Errorf("unknown SEARCH_BACKEND: %s", cfg.SearchBackend)
	}

	br := searchindex.NewBreaker(idx, BreakerConfig(cfg), log)

	if cfg.SearchBackend == "weaviate" {
		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
			defer cancel()
			if _, err := idx.EnsureIndex(bootstrapCtx); err != nil {
				log.Warn().Err(err).Str("url", cfg.WeaviateURL).Msg("search index bootstrap failed")
			} else {
				log.Debug().Str("url", cfg.WeaviateURL).Msg("search index bootstrap completed")
			}
		}()
	}
	return br, nil
}

// BreakerConfig maps the breaker settings of cfg.
func BreakerConfig(cfg *config.Config) searchindex.BreakerConfig {
	return searchindex.BreakerConfig{
		Name:                "search-index",
		MaxFailures:         cfg.BreakerMaxFailures,
		OpenTimeout:         time.Duration(cfg.BreakerOpenSeconds) * time.Second,
		HalfOpenMaxRequests: cfg.BreakerHalfOpenMaxReqs,
	}
}
