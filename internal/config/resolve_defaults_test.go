package config

import (
	"testing"
)

func TestResolveDefaultsCloudDev(t *testing.T) {
	t.Setenv("PERSONALIZATION_BUILD_TARGET", "cloud-dev")
	t.Setenv("PERSONALIZATION_POSTGRES_DSN", "postgres://u:p@localhost:5432/feed?sslmode=disable")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" || cfg.SearchBackend != "weaviate" {
		t.Fatalf("unexpected mapping: %s %s", cfg.DBDriver, cfg.SearchBackend)
	}
}

func TestResolveDefaultsCloudDevRequiresDSN(t *testing.T) {
	t.Setenv("PERSONALIZATION_BUILD_TARGET", "cloud-dev")
	t.Setenv("PERSONALIZATION_POSTGRES_DSN", "")

	if _, err := New(); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestResolveDefaultsOverride(t *testing.T) {
	t.Setenv("PERSONALIZATION_BUILD_TARGET", "local")
	t.Setenv("PERSONALIZATION_SEARCH_BACKEND", "weaviate")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "memory" || cfg.SearchBackend != "weaviate" {
		t.Fatalf("override failed, got %s %s", cfg.DBDriver, cfg.SearchBackend)
	}
}

func TestResolveDefaultsLocal(t *testing.T) {
	t.Setenv("PERSONALIZATION_BUILD_TARGET", "local")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "memory" || cfg.SearchBackend != "memory" {
		t.Fatalf("unexpected mapping for local: %s %s", cfg.DBDriver, cfg.SearchBackend)
	}
}

func TestResolveDefaultsRejectsUnknownTarget(t *testing.T) {
	cfg := &Config{BuildTarget: "desktop", SearchCandidateLimit: 10}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown build target")
	}
}

func TestResolveDefaultsRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "sqlite", SearchCandidateLimit: 10}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown db driver")
	}
}
