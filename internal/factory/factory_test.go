package factory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glglak/elastic-personalization-poc/internal/config"
	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store/memstore"
)

func TestNewStore_Memory(t *testing.T) {
	cfg := config.NewForTesting()
	s, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, s)

	u, err := s.Users().Create(context.Background(), &model.User{Username: "u", Email: "u@example.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
}

func TestNewStore_Rejects(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "sqlite"
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = ""
	_, err = NewStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestNewSearchIndex_Memory(t *testing.T) {
	cfg := config.NewForTesting()
	idx, err := NewSearchIndex(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.IndexDocument(ctx, searchindex.Document{ContentID: "c1", Title: "hello"}))
	ids, err := idx.Query(ctx, searchindex.Query{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
	assert.NoError(t, idx.HealthPing(ctx))
}

func TestNewSearchIndex_Rejects(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SearchBackend = "elastic"
	_, err := NewSearchIndex(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.SearchBackend = "weaviate"
	cfg.WeaviateURL = ""
	_, err = NewSearchIndex(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestBreakerConfig(t *testing.T) {
	cfg := config.NewForTesting()
	bc := BreakerConfig(cfg)
	assert.Equal(t, uint32(5), bc.MaxFailures)
	assert.Equal(t, 30*time.Second, bc.OpenTimeout)
	assert.Equal(t, uint32(1), bc.HalfOpenMaxRequests)
}
