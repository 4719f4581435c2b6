package feedservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/api"
	"github.com/glglak/elastic-personalization-poc/internal/config"
	"github.com/glglak/elastic-personalization-poc/internal/factory"
	"github.com/glglak/elastic-personalization-poc/internal/health"
	"github.com/glglak/elastic-personalization-poc/internal/logger"
	"github.com/glglak/elastic-personalization-poc/internal/personalization"
	"github.com/glglak/elastic-personalization-poc/internal/searchindex"
	"github.com/glglak/elastic-personalization-poc/internal/services"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// Run starts the feed service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("feed-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.NewWithLevel("feed-service", cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("search_backend", cfg.SearchBackend).
		Int("http_port", cfg.HTTPPort).
		Msg("Feed service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, idx, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st, idx)

	router, err := buildRouter(cfg, log, st, idx, svcHealth)
	if err != nil {
		return err
	}

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs the store and the search index; missing deps fail fast.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, searchindex.Index, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, err
	}
	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return nil, nil, err
	}
	return st, idx, nil
}

// buildRouter constructs the services and wires them to HTTP routes.
func buildRouter(cfg *config.Config, log zerolog.Logger, st store.Store, idx searchindex.Index, h api.HealthReporter) (http.Handler, error) {
	w := WeightsFromConfig(cfg)
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("personalization weights: %w", err)
	}
	return api.NewRouter(api.Deps{
		Personalization: personalization.NewService(st, idx, w, log),
		Content:         services.NewContentService(st, idx, log),
		Interactions:    services.NewInteractionService(st, log),
		Users:           services.NewUserService(st),
		Health:          h,
	}), nil
}

// WeightsFromConfig reads the interaction weights loaded at startup.
func WeightsFromConfig(cfg *config.Config) personalization.Weights {
	return personalization.Weights{
		Share:      cfg.ShareWeight,
		Comment:    cfg.CommentWeight,
		Like:       cfg.LikeWeight,
		Follow:     cfg.FollowWeight,
		Preference: cfg.PreferenceWeight,
		Interest:   cfg.InterestWeight,
	}
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, idx searchindex.Index) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	idxChecker := searchindex.NewSearchIndexHealthChecker(idx, log, probeTimeout)
	go idxChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, idxChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth api.HealthReporter) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
