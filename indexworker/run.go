package indexworker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/glglak/elastic-personalization-poc/internal/config"
	"github.com/glglak/elastic-personalization-poc/internal/factory"
	"github.com/glglak/elastic-personalization-poc/internal/logger"
	"github.com/glglak/elastic-personalization-poc/internal/outbox"
	storepg "github.com/glglak/elastic-personalization-poc/internal/store/postgres"
)

// Run starts the outbox index worker and its metrics endpoint and blocks
// until shutdown or error.
func Run() error {
	log := logger.New("index-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}
	log = logger.NewWithLevel("index-worker", cfg.LogLevel)
	if cfg.DBDriver != "postgres" {
		return fmt.Errorf("index worker requires DB_DRIVER=postgres, got %s", cfg.DBDriver)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ensure schema exists in dev/e2e; safe to call repeatedly.
	bootCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
	err = storepg.Bootstrap(bootCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("postgres bootstrap")
		return err
	}
	db, err := storepg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error().Err(err).Msg("postgres open")
		return err
	}
	defer func() { _ = db.Close() }()

	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("search index")
		return err
	}

	w := outbox.NewWorker(db, idx, outbox.Config{
		BatchSize: cfg.OutboxBatchSize,
		Interval:  time.Duration(cfg.OutboxIntervalSeconds) * time.Second,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{Addr: cfg.GetMetricsAddr(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", metrics.Addr).Msg("metrics server starting")
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metrics.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("index worker exit")
		return err
	}
	return nil
}
