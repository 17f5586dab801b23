package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/retry"
)

// PostgresTestImage is the stock PostgreSQL image used for integration tests.
// The schema comes from the embedded migrations, not the image.
const PostgresTestImage = "postgres:16-alpine"

// TestDB holds a shared PostgreSQL container and a migrated store.
type TestDB struct {
	Container testcontainers.Container
	Store     database.Store
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "procurement_test",
			"POSTGRES_USER":     "procure",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The entrypoint restarts the server once after init.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://procure:test_password@%s:%s/procurement_test?sslmode=disable",
		host, port.Port())

	store, err := database.Open(ctx, database.OpenOptions{
		Dialect:        database.DialectPostgres,
		PostgresURL:    connStr,
		MaxConnections: 5,
		AutoMigrate:    true,
		Retry: &retry.Config{
			MaxRetries:   10,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   1.5,
		},
	}, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to open test store: %w", err)
	}

	return &TestDB{
		Container: container,
		Store:     store,
		ConnStr:   connStr,
	}, nil
}

// Reset empties every table so each test starts from a clean schema.
func (db *TestDB) Reset(t *testing.T) {
	t.Helper()
	_, err := db.Store.Exec(context.Background(), database.Raw(
		`TRUNCATE proposal_scores, proposals, rfp_vendors, rfps, vendors RESTART IDENTITY CASCADE`))
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}
}
