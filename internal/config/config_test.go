package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.UpstreamBaseURL != "http://localhost:9000" {
		t.Errorf("expected default upstream URL, got %s", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamTimeout != 0 {
		t.Errorf("expected client timeout disabled by default, got %v", cfg.UpstreamTimeout)
	}
	if cfg.ParallelPages != 10 {
		t.Errorf("expected 10 parallel pages, got %d", cfg.ParallelPages)
	}
	if cfg.ExportChunkSize != 5000 {
		t.Errorf("expected export chunk size 5000, got %d", cfg.ExportChunkSize)
	}
	if cfg.LookupCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m lookup TTL, got %v", cfg.LookupCacheTTL)
	}
	if cfg.PingPeriod >= cfg.PongWait {
		t.Errorf("ping period %v must be less than pong wait %v", cfg.PingPeriod, cfg.PongWait)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PARALLEL_PAGES", "4")
	t.Setenv("UPSTREAM_TIMEOUT", "30")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example , http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.ParallelPages != 4 {
		t.Errorf("expected 4 parallel pages, got %d", cfg.ParallelPages)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Errorf("expected 30s upstream timeout, got %v", cfg.UpstreamTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("expected trimmed origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadInvalidNumbers(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"parallel pages", "PARALLEL_PAGES"},
		{"upstream timeout", "UPSTREAM_TIMEOUT"},
		{"export chunk size", "EXPORT_CHUNK_SIZE"},
		{"lookup cache ttl", "LOOKUP_CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, "not-a-number")
			if _, err := Load(); err == nil {
				t.Errorf("expected error for invalid %s", tt.key)
			}
		})
	}
}
