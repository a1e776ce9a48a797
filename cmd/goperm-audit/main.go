// Command goperm-audit prints the delete-permission audit of every stored
// role as JSON.
//
// Roles are read from Postgres (-postgres), SQLite (-sqlite), Redis (-redis or
// REDIS_ADDR) or, when none is given, an in-process miniredis seeded from
// -roles. With -validate it checks one wire permission document instead.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/report"
	"github.com/MrEthical07/goPerm/store"
	"github.com/alicebob/miniredis/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type options struct {
	catalog     string
	postgres    string
	sqlite      string
	redisAddr   string
	prefix      string
	roles       string
	validate    string
	failOnError bool
	verbose     bool
	timeout     time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.catalog, "catalog", "", "YAML module catalog; the built-in catalog when empty")
	flag.StringVar(&opts.postgres, "postgres", "", "Postgres DSN to read roles from")
	flag.StringVar(&opts.sqlite, "sqlite", "", "SQLite database file to read roles from")
	flag.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env is used")
	flag.StringVar(&opts.prefix, "prefix", "gp", "redis key prefix")
	flag.StringVar(&opts.roles, "roles", "", "JSON file of roles to import before auditing")
	flag.StringVar(&opts.validate, "validate", "", "validate one JSON permission document and exit")
	flag.BoolVar(&opts.failOnError, "fail-on-error", false, "exit 1 when the audit has error findings")
	flag.BoolVar(&opts.verbose, "v", false, "log at debug level")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	logger, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	code, err := run(opts, logger, os.Stdout)
	if err != nil {
		logger.Error("goperm-audit failed", zap.Error(err))
	}
	os.Exit(code)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func run(opts options, logger *zap.Logger, out io.Writer) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	st, cleanup, err := openStore(ctx, opts, logger)
	if err != nil {
		return 1, err
	}
	defer cleanup()

	cfg := goPerm.DefaultConfig()
	cfg.Catalog.Path = opts.catalog
	cfg.Store.RedisPrefix = opts.prefix
	svc, err := goPerm.New().
		WithConfig(cfg).
		WithStore(st).
		WithLogger(logger).
		Build()
	if err != nil {
		return 1, err
	}
	defer svc.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if opts.validate != "" {
		rep, err := validateFile(svc, opts.validate)
		if err != nil {
			return 1, err
		}
		if err := enc.Encode(rep); err != nil {
			return 1, err
		}
		if !rep.OK() {
			return 1, nil
		}
		return 0, nil
	}

	if opts.roles != "" {
		n, err := importRoles(ctx, svc, opts.roles)
		if err != nil {
			return 1, err
		}
		logger.Info("roles imported", zap.Int("count", n), zap.String("file", opts.roles))
	}

	sum, err := svc.AuditRoles(ctx)
	if err != nil {
		return 1, err
	}
	if err := enc.Encode(sum); err != nil {
		return 1, err
	}
	if opts.failOnError && sum.Count(report.LevelError) > 0 {
		return 1, nil
	}
	return 0, nil
}

func openStore(ctx context.Context, opts options, logger *zap.Logger) (store.Store, func(), error) {
	switch {
	case opts.postgres != "" && opts.sqlite != "":
		return nil, nil, errors.New("-postgres and -sqlite are mutually exclusive")
	case opts.postgres != "":
		return openSQL(ctx, "postgres", opts.postgres, logger)
	case opts.sqlite != "":
		return openSQL(ctx, "sqlite3", opts.sqlite, logger)
	}

	addr := opts.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", addr, err)
		}
		logger.Debug("using redis", zap.String("addr", addr))
		return store.NewRedisStore(client, opts.prefix), func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Debug("using miniredis", zap.String("addr", mr.Addr()))
	return store.NewRedisStore(client, opts.prefix), func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func openSQL(ctx context.Context, driver, dsn string, logger *zap.Logger) (store.Store, func(), error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	st := store.NewSQLStore(db)
	if err := st.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.Debug("using sql store", zap.String("driver", driver))
	return st, func() { _ = db.Close() }, nil
}

// importRoles submits every role in path through the service, so each one is
// normalized and validated like an edit would be.
func importRoles(ctx context.Context, svc *goPerm.Service, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var recs []store.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, rec := range recs {
		set, err := svc.Decode(rec.Permissions)
		if err != nil {
			return i, fmt.Errorf("role %d (%s): %w", i, rec.Name, err)
		}
		if _, _, err := svc.SubmitRole(ctx, goPerm.RoleDraft{
			Name:        rec.Name,
			Parent:      rec.Parent,
			Description: rec.Description,
			Permissions: set,
		}); err != nil {
			return i, fmt.Errorf("role %d (%s): %w", i, rec.Name, err)
		}
	}
	return len(recs), nil
}

func validateFile(svc *goPerm.Service, path string) (permission.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return permission.Report{}, err
	}
	var entries []permission.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return svc.ValidateDocument(data), nil
	}
	return svc.ValidateEntries(entries), nil
}
