package database

import (
	"database/sql"
	"errors"
	"fmt"

	gomigrate "github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/migrations"
)

// RunMigrations applies pending embedded migrations for the given dialect.
// It is idempotent. RunMigrations takes ownership of db and closes it, so
// callers pass a dedicated handle rather than the one backing their Store.
func RunMigrations(db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	var (
		driver migratedb.Driver
		err    error
	)
	switch dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		db.Close()
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, string(dialect))
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := gomigrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		source.Close()
		driver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, gomigrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)", zap.String("dialect", string(dialect)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("Applied migrations successfully",
		zap.String("dialect", string(dialect)),
		zap.Uint("version", newVersion))
	return nil
}
