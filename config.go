package goPerm

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goPerm APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Catalog    CatalogConfig
	Session    SessionConfig
	Store      StoreConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Validation ValidationConfig
}

/*
====================================
CATALOG CONFIG
====================================
*/

// CatalogConfig selects the module catalog. An empty Path uses the built-in
// table; otherwise the YAML document at Path is loaded at Build time.
type CatalogConfig struct {
	Path string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls EditSession persistence.
type SessionConfig struct {
	// Debounce is the quiet period after the last edit of a field before
	// the role is submitted.
	Debounce time.Duration
	// SubmitTimeout bounds each background submission.
	SubmitTimeout time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by goPerm APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goPerm APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goPerm APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig controls how validator findings affect submission.
type ValidationConfig struct {
	// BlockOnCritical rejects submissions carrying critical-severity
	// warnings (delete on a critical module) in addition to errors.
	BlockOnCritical bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Debounce:      500 * time.Millisecond,
			SubmitTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "gp",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Validation: ValidationConfig{
			BlockOnCritical: false,
		},
	}
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Catalog.Path = strings.TrimSpace(cfg.Catalog.Path)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// Session
	if c.Session.Debounce <= 0 {
		return errors.New("Session Debounce must be > 0")
	}
	if c.Session.Debounce > time.Minute {
		return errors.New("Session Debounce must be <= 1m")
	}
	if c.Session.SubmitTimeout <= 0 {
		return errors.New("Session SubmitTimeout must be > 0")
	}

	// Store
	if c.Store.RedisPrefix == "" {
		return errors.New("Store RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Store.RedisPrefix, " \t\n{}") {
		return errors.New("Store RedisPrefix must not contain whitespace or braces")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
