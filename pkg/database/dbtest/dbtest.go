// Package dbtest opens a migrated Postgres pool for repository tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fooder/backend/pkg/database"
)

// Pool returns a pool on DATABASE_URL with the migrations applied, closed when the test ends.
// The test is skipped when DATABASE_URL is unset.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := database.Migrate(dsn, database.DirectionUp, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 4}, zap.NewNop())
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// Tenant returns a tenant id no other test uses, so tests share tables without cleanup.
func Tenant() string {
	return "test-" + uuid.NewString()
}
