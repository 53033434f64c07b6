package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pastrypal/pastrypal-backend/pkg/database"
)

// StartPostgres launches a disposable PostgreSQL container, connects to it
// and applies the schema. Skipped unless PASTRYPAL_INTEGRATION_TESTS is set
// so the unit suite stays Docker-free.
func StartPostgres(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("PASTRYPAL_INTEGRATION_TESTS") == "" {
		t.Skip("set PASTRYPAL_INTEGRATION_TESTS=1 to run integration tests")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pastrypal_test"),
		postgres.WithUsername("pastrypal"),
		postgres.WithPassword("pastrypal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to build connection string: %v", err)
	}

	db, err := database.NewWithDSN(dsn, NewTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}
