package outbox

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/store/postgres"
)

func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("PERSONALIZATION_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "feed",
				"POSTGRES_PASSWORD": "feed",
				"POSTGRES_DB":       "feed",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable, skipping outbox integration test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://feed:feed@%s:%s/feed?sslmode=disable", host, port.Port())
}

func TestWorker_AppliesOutboxToIndex(t *testing.T) {
	dsn := postgresDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, postgres.Bootstrap(ctx, dsn))
	db, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := postgres.NewWithDB(db)

	suffix := fmt.Sprint(time.Now().UnixNano())
	u, err := st.Users().Create(ctx, &model.User{Username: "outbox-" + suffix, Email: "o@example.com"})
	require.NoError(t, err)
	keep, err := st.Contents().Create(ctx, &model.Content{CreatorID: u.UserID, Title: "kept " + suffix, Tags: []string{suffix}})
	require.NoError(t, err)
	gone, err := st.Contents().Create(ctx, &model.Content{CreatorID: u.UserID, Title: "gone " + suffix, Tags: []string{suffix}})
	require.NoError(t, err)
	require.NoError(t, st.Contents().Delete(ctx, gone.ContentID))

	idx := searchindex.NewMemoryIndex()
	w := NewWorker(db, idx, Config{BatchSize: 50}, zerolog.Nop())
	for i := 0; i < 20; i++ {
		n, err := w.Pending(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		_, err = w.ProcessOnce(ctx)
		require.NoError(t, err)
	}

	ids, err := idx.Query(ctx, searchindex.Query{
		Filter: searchindex.Filter{Must: []searchindex.Clause{{Field: searchindex.FieldTags, Values: []string{suffix}}}},
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ContentID}, ids)
}
