package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/config"
	storepkg "github.com/glglak/elastic-personalization-poc/internal/store"
	"github.com/glglak/elastic-personalization-poc/internal/store/memstore"
	storepg "github.com/glglak/elastic-personalization-poc/internal/store/postgres"
)

// NewStore returns the store selected by cfg.DBDriver. The Postgres schema is
// applied before the store is returned since every request depends on it.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	case "postgres":
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
	dsn := cfg.PostgresDSN
	if dsn == "" {
		return nil, fmt.Errorf("PERSONALIZATION_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
	defer cancel()
	if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
		return nil, fmt.Errorf("store bootstrap: %w", err)
	}
	log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")

	db, err := storepg.Open(dsn)
	if err != nil {
		return nil, err
	}
	return storepg.NewWithDB(db), nil
}
