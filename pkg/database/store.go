package database

import (
	"context"
	"errors"
	"fmt"
)

// Dialect identifies the SQL flavor a Store speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrNoRows is returned by Row.Scan when a query produced no rows, including a
// RETURNING statement that matched nothing.
var ErrNoRows = errors.New("no rows in result set")

// Store is the query surface repositories depend on. Implementations own their
// connection pool; the same Store is shared by all concurrent requests.
type Store interface {
	Dialect() Dialect
	// Exec runs a statement that returns no rows and reports rows affected.
	Exec(ctx context.Context, stmt Statement, args ...any) (int64, error)
	// Query runs a statement that returns rows (SELECT or RETURNING).
	Query(ctx context.Context, stmt Statement, args ...any) (Rows, error)
	// QueryRow runs a statement expected to return at most one row.
	QueryRow(ctx context.Context, stmt Statement, args ...any) Row
	Ping(ctx context.Context) error
	Close() error
}

// Rows iterates a result set. Close must be called when done.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Row is a single-row result. Scan returns ErrNoRows when the result is empty.
type Row interface {
	Scan(dest ...any) error
}

// Statement carries the text of one query for every supported dialect.
// Placeholders are $1..$n for PostgreSQL and ? for SQLite, each parameter
// bound once in order so both forms take the same argument list.
type Statement struct {
	Postgres string
	SQLite   string
}

// Raw returns a Statement whose text is valid for both dialects. Only use it
// for parameterless SQL.
func Raw(sql string) Statement {
	return Statement{Postgres: sql, SQLite: sql}
}

// For returns the statement text for the given dialect.
func (s Statement) For(d Dialect) (string, error) {
	var sql string
	switch d {
	case DialectPostgres:
		sql = s.Postgres
	case DialectSQLite:
		sql = s.SQLite
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
	if sql == "" {
		return "", fmt.Errorf("statement has no %s form", d)
	}
	return sql, nil
}

// errRow defers an error until Scan, matching how drivers report QueryRow failures.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
