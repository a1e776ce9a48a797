package goPerm

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Session.Debounce != 500*time.Millisecond {
		t.Fatalf("expected 500ms debounce, got %v", cfg.Session.Debounce)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "short debounce valid",
			mutate: func(c *Config) {
				c.Session.Debounce = 10 * time.Millisecond
			},
			wantValid: true,
		},
		{
			name: "zero debounce invalid",
			mutate: func(c *Config) {
				c.Session.Debounce = 0
			},
			wantValid: false,
		},
		{
			name: "debounce above a minute invalid",
			mutate: func(c *Config) {
				c.Session.Debounce = 2 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "negative submit timeout invalid",
			mutate: func(c *Config) {
				c.Session.SubmitTimeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "empty redis prefix invalid",
			mutate: func(c *Config) {
				c.Store.RedisPrefix = ""
			},
			wantValid: false,
		},
		{
			name: "redis prefix with braces invalid",
			mutate: func(c *Config) {
				c.Store.RedisPrefix = "gp{1}"
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit disabled ignores buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.BufferSize = 0
			},
			wantValid: true,
		},
		{
			name: "histograms without metrics invalid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
		{
			name: "histograms with metrics valid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatalf("expected invalid config")
			}
		})
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.Debounce = 0
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatalf("expected Build to fail on invalid config")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	svc, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer svc.Close()

	if _, err := b.Build(); err == nil {
		t.Fatalf("expected second Build to fail")
	}
}

func TestBuilderMissingCatalogFile(t *testing.T) {
	cfg := defaultConfig()
	cfg.Catalog.Path = t.TempDir() + "/missing.yaml"
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatalf("expected Build to fail for missing catalog file")
	}
}
