package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/retry"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procure.db")
	store, err := Open(context.Background(), OpenOptions{
		Dialect:     DialectSQLite,
		SQLitePath:  path,
		AutoMigrate: true,
		Retry:       &retry.Config{MaxRetries: 0},
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var insertVendor = Statement{
	Postgres: `INSERT INTO vendors (name, email) VALUES ($1, $2) RETURNING id`,
	SQLite:   `INSERT INTO vendors (name, email) VALUES (?, ?) RETURNING id`,
}

func TestStatement_For(t *testing.T) {
	stmt := Statement{Postgres: "SELECT $1", SQLite: "SELECT ?"}

	pg, err := stmt.For(DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1", pg)

	lite, err := stmt.For(DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?", lite)

	_, err = Statement{Postgres: "SELECT 1"}.For(DialectSQLite)
	assert.Error(t, err)

	_, err = stmt.For(Dialect("oracle"))
	assert.Error(t, err)
}

func TestRaw(t *testing.T) {
	stmt := Raw("DELETE FROM vendors")
	assert.Equal(t, stmt.Postgres, stmt.SQLite)
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("/tmp/x.db")
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "foreign_keys%281%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
}

func TestSQLiteStore_ReturningInsertAndSelect(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	assert.Equal(t, DialectSQLite, store.Dialect())

	var id int64
	err := store.QueryRow(ctx, insertVendor, "Acme", "sales@acme.test").Scan(&id)
	require.NoError(t, err)
	assert.Positive(t, id)

	rows, err := store.Query(ctx, Raw(`SELECT name, email FROM vendors ORDER BY id`))
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name, email string
		require.NoError(t, rows.Scan(&name, &email))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Acme"}, names)
}

func TestSQLiteStore_ReturningNoRowsIsErrNoRows(t *testing.T) {
	store := openTestSQLite(t)

	var id int64
	err := store.QueryRow(context.Background(), Statement{
		SQLite: `UPDATE vendors SET name = ? WHERE id = ? RETURNING id`,
	}, "Nobody", 9999).Scan(&id)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestSQLiteStore_ExecRowsAffected(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, store.QueryRow(ctx, insertVendor, "Acme", "a@acme.test").Scan(&id))

	n, err := store.Exec(ctx, Statement{SQLite: `DELETE FROM vendors WHERE id = ?`}, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Exec(ctx, Statement{SQLite: `DELETE FROM vendors WHERE id = ?`}, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSQLiteStore_ConstraintClassification(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, store.QueryRow(ctx, insertVendor, "Acme", "dup@acme.test").Scan(&id))

	err := store.QueryRow(ctx, insertVendor, "Acme Again", "dup@acme.test").Scan(&id)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = store.Exec(ctx, Statement{
		SQLite: `INSERT INTO rfp_vendors (rfp_id, vendor_id) VALUES (?, ?)`,
	}, 12345, id)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))
}

func TestSQLiteStore_MissingDialectForm(t *testing.T) {
	store := openTestSQLite(t)

	_, err := store.Exec(context.Background(), Statement{Postgres: "SELECT 1"})
	assert.Error(t, err)

	var n int
	err = store.QueryRow(context.Background(), Statement{Postgres: "SELECT 1"}).Scan(&n)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRows))
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procure.db")
	opts := OpenOptions{
		Dialect:     DialectSQLite,
		SQLitePath:  path,
		AutoMigrate: true,
		Retry:       &retry.Config{MaxRetries: 0},
	}

	first, err := Open(context.Background(), opts, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), opts, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.QueryRow(context.Background(),
		Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('vendors', 'rfps', 'rfp_vendors', 'proposals', 'proposal_scores')`),
	).Scan(&count))
	assert.Equal(t, 5, count)
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), OpenOptions{Dialect: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestIsUniqueViolation_PlainError(t *testing.T) {
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value")))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestOptionsFromConfig(t *testing.T) {
	lite := OptionsFromConfig(config.DatabaseConfig{Type: config.DatabaseSQLite, SQLitePath: "/tmp/p.db", AutoMigrate: true})
	assert.Equal(t, DialectSQLite, lite.Dialect)
	assert.Equal(t, "/tmp/p.db", lite.SQLitePath)
	assert.True(t, lite.AutoMigrate)
	assert.Empty(t, lite.PostgresURL)

	pg := OptionsFromConfig(config.DatabaseConfig{
		Type:           config.DatabasePostgres,
		Host:           "db",
		Port:           5432,
		User:           "procure",
		Password:       "s3cret",
		Database:       "procurement_db",
		SSLMode:        "disable",
		MaxConnections: 7,
	})
	assert.Equal(t, DialectPostgres, pg.Dialect)
	assert.Equal(t, "postgres://procure:s3cret@db:5432/procurement_db?sslmode=disable", pg.PostgresURL)
	assert.Equal(t, int32(7), pg.MaxConnections)
}
