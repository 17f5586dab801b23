package testhelpers

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/retry"
)

// NewSQLiteStore returns a migrated store backed by a fresh file in a
// per-test temp directory. It needs no Docker and is closed on cleanup.
func NewSQLiteStore(t *testing.T) database.Store {
	t.Helper()

	store, err := database.Open(context.Background(), database.OpenOptions{
		Dialect:     database.DialectSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "procurement_test.db"),
		AutoMigrate: true,
		Retry:       &retry.Config{MaxRetries: 0},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open sqlite test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
