package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"feature-voting-backend/internal/infrastructure/database"
)

// TestDatabaseURLEnv names the connection string used by integration tests
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

// SetupPostgres connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when the variable is not set.
func SetupPostgres(t *testing.T) *database.PostgresDB {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping PostgreSQL integration test", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", TestDatabaseURLEnv, err)
	}
	cfg.MaxConns = 32

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db := &database.PostgresDB{Pool: pool}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE votes, features, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	return db
}
