package goPerm

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goPerm/internal/audit"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder defines a public type used by goPerm APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config  Config
	catalog *permission.Catalog
	store   store.Store
	redis   redis.UniversalClient
	logger  *zap.Logger

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCatalog sets the module catalog. It takes precedence over Config.Catalog.Path.
func (b *Builder) WithCatalog(catalog *permission.Catalog) *Builder {
	b.catalog = catalog
	return b
}

// WithStore sets the persistence collaborator.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// When no store is set, Build persists roles in Redis under Config.Store.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not enable auditing by itself; set Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when the configuration is invalid or the catalog
// file cannot be loaded. A Builder can be built only once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog := b.catalog
	if catalog == nil {
		if cfg.Catalog.Path != "" {
			loaded, err := permission.LoadCatalogFile(cfg.Catalog.Path)
			if err != nil {
				return nil, fmt.Errorf("load catalog: %w", err)
			}
			catalog = loaded
		} else {
			catalog = permission.DefaultCatalog()
		}
	}
	if !catalog.Frozen() {
		catalog.Freeze()
	}

	st := b.store
	if st == nil {
		if b.redis != nil {
			st = store.NewRedisStore(b.redis, cfg.Store.RedisPrefix)
		} else {
			st = store.NewMemoryStore()
		}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		config:    cfg,
		catalog:   catalog,
		codec:     permission.NewCodec(catalog),
		mutator:   permission.NewMutator(catalog),
		validator: permission.NewValidator(catalog),
		store:     st,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
	}

	if cfg.Audit.Enabled {
		svc.audit = audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink)
	}

	b.built = true
	return svc, nil
}
