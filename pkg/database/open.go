package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for migrations
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/logging"
	"github.com/ekaya-inc/ekaya-procure/pkg/retry"
)

// OpenOptions selects and configures the store opened by Open.
type OpenOptions struct {
	Dialect Dialect

	// PostgreSQL
	PostgresURL     string
	MaxConnections  int32
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	// SQLite
	SQLitePath string

	AutoMigrate bool

	// Retry controls connection attempts; nil uses retry.DefaultConfig.
	Retry *retry.Config
}

// OptionsFromConfig maps the database section of the service config onto
// OpenOptions.
func OptionsFromConfig(cfg config.DatabaseConfig) OpenOptions {
	opts := OpenOptions{
		Dialect:     Dialect(cfg.Type),
		AutoMigrate: cfg.AutoMigrate,
	}
	switch cfg.Type {
	case config.DatabaseSQLite:
		opts.SQLitePath = cfg.SQLitePath
	default:
		opts.PostgresURL = cfg.URL()
		opts.MaxConnections = cfg.MaxConnections
		opts.MaxConnIdleTime = cfg.IdleTimeout
		opts.ConnectTimeout = cfg.ConnectTimeout
	}
	return opts
}

// Open connects to the configured store, retrying transient failures, and
// applies migrations when AutoMigrate is set.
func Open(ctx context.Context, opts OpenOptions, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch opts.Dialect {
	case DialectPostgres:
		logger.Info("Connecting to PostgreSQL",
			zap.String("url", logging.SanitizeConnectionString(opts.PostgresURL)))
		store, err = retry.DoWithResult(ctx, opts.Retry, func() (Store, error) {
			return NewPostgresStore(ctx, &Config{
				URL:             opts.PostgresURL,
				MaxConnections:  opts.MaxConnections,
				MaxConnIdleTime: opts.MaxConnIdleTime,
				ConnectTimeout:  opts.ConnectTimeout,
			})
		})
	case DialectSQLite:
		logger.Info("Opening SQLite database", zap.String("path", opts.SQLitePath))
		store, err = retry.DoWithResult(ctx, opts.Retry, func() (Store, error) {
			return NewSQLiteStore(ctx, opts.SQLitePath)
		})
	default:
		return nil, fmt.Errorf("unsupported database type %q", opts.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %s", opts.Dialect, logging.SanitizeError(err))
	}

	if opts.AutoMigrate {
		if err := migrate(opts, logger); err != nil {
			store.Close()
			return nil, err
		}
	}

	return store, nil
}

func migrate(opts OpenOptions, logger *zap.Logger) error {
	var (
		db  *sql.DB
		err error
	)
	switch opts.Dialect {
	case DialectPostgres:
		db, err = sql.Open("pgx", opts.PostgresURL)
	case DialectSQLite:
		db, err = sql.Open("sqlite", SQLiteDSN(opts.SQLitePath))
	}
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	return RunMigrations(db, opts.Dialect, logger)
}
