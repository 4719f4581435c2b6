package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvPrefix is the prefix shared by every environment variable the services read.
const EnvPrefix = "PERSONALIZATION"

// Config holds the configuration for the feed service and the index worker.
// Environment variables are parsed from the PERSONALIZATION_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"cloud-dev"`

	// Derived or override drivers
	DBDriver      string `envconfig:"DB_DRIVER" default:"auto"`
	SearchBackend string `envconfig:"SEARCH_BACKEND" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Search index
	WeaviateURL          string `envconfig:"WEAVIATE_URL" default:"weaviate:8080"`
	SearchClass          string `envconfig:"SEARCH_CLASS" default:"Content"`
	SearchCandidateLimit int    `envconfig:"SEARCH_CANDIDATE_LIMIT" default:"1000"`

	// Health and bootstrap
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`

	// Circuit breaker around the search index
	BreakerMaxFailures     uint32 `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenSeconds     int    `envconfig:"BREAKER_OPEN_SECONDS" default:"30"`
	BreakerHalfOpenMaxReqs uint32 `envconfig:"BREAKER_HALF_OPEN_MAX_REQUESTS" default:"1"`

	// Outbox worker
	OutboxBatchSize       int `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxIntervalSeconds int `envconfig:"OUTBOX_INTERVAL_SECONDS" default:"2"`
	MetricsPort           int `envconfig:"METRICS_PORT" default:"9102"`

	// Personalization weights, read once at startup
	ShareWeight      float64 `envconfig:"SHARE_WEIGHT" default:"5.0"`
	CommentWeight    float64 `envconfig:"COMMENT_WEIGHT" default:"4.0"`
	LikeWeight       float64 `envconfig:"LIKE_WEIGHT" default:"3.0"`
	FollowWeight     float64 `envconfig:"FOLLOW_WEIGHT" default:"4.5"`
	PreferenceWeight float64 `envconfig:"PREFERENCE_WEIGHT" default:"2.0"`
	InterestWeight   float64 `envconfig:"INTEREST_WEIGHT" default:"1.5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver and SearchBackend when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB, defaultSearch string

	switch c.BuildTarget {
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
		defaultSearch = "weaviate"
	case "local":
		defaultDB = "memory"
		defaultSearch = "memory"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	if c.SearchBackend == "" || c.SearchBackend == "auto" {
		c.SearchBackend = defaultSearch
	}

	allowedDB := map[string]bool{"postgres": true, "memory": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	allowedSearch := map[string]bool{"weaviate": true, "memory": true}
	if !allowedSearch[c.SearchBackend] {
		return fmt.Errorf("unsupported SEARCH_BACKEND: %s", c.SearchBackend)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
	}

	weights := map[string]float64{
		"SHARE_WEIGHT":      c.ShareWeight,
		"COMMENT_WEIGHT":    c.CommentWeight,
		"LIKE_WEIGHT":       c.LikeWeight,
		"FOLLOW_WEIGHT":     c.FollowWeight,
		"PREFERENCE_WEIGHT": c.PreferenceWeight,
		"INTEREST_WEIGHT":   c.InterestWeight,
	}
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, w)
		}
	}
	if c.SearchCandidateLimit <= 0 {
		return fmt.Errorf("SEARCH_CANDIDATE_LIMIT must be positive, got %d", c.SearchCandidateLimit)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with PERSONALIZATION_
// Example: PERSONALIZATION_HTTP_PORT, PERSONALIZATION_SHARE_WEIGHT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("search_backend", cfg.SearchBackend).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("weaviate_url", cfg.WeaviateURL).
		Str("search_class", cfg.SearchClass).
		Float64("share_weight", cfg.ShareWeight).
		Float64("comment_weight", cfg.CommentWeight).
		Float64("like_weight", cfg.LikeWeight).
		Float64("follow_weight", cfg.FollowWeight).
		Float64("preference_weight", cfg.PreferenceWeight).
		Float64("interest_weight", cfg.InterestWeight).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
		LogLevel:    "debug",
		BuildTarget: "local",
		HTTPPort:    8080,
		WeaviateURL: "localhost:8082",
		SearchClass: "Content",

		SearchCandidateLimit:      1000,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   5,
		BreakerMaxFailures:        5,
		BreakerOpenSeconds:        30,
		BreakerHalfOpenMaxReqs:    1,
		OutboxBatchSize:           100,
		OutboxIntervalSeconds:     2,

		ShareWeight:      5.0,
		CommentWeight:    4.0,
		LikeWeight:       3.0,
		FollowWeight:     4.5,
		PreferenceWeight: 2.0,
		InterestWeight:   1.5,
	}
	cfg.DBDriver = "memory"
	cfg.SearchBackend = "memory"
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetMetricsAddr returns the address the index worker exposes /metrics on.
func (c *Config) GetMetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}
