//go:build integration

// Package dbtest opens the Postgres database used by the integration tests.
// Run them with TEST_DB_ADDR set and -tags integration.
package dbtest

import (
	"context"
	"os"
	"testing"

	"accessimaps/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects to TEST_DB_ADDR, applies the schema and empties every table.
// The test is skipped when the variable is unset.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	addr := os.Getenv("TEST_DB_ADDR")
	if addr == "" {
		t.Skip("TEST_DB_ADDR not set")
	}

	pool, err := db.New(addr, 10, "1m")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx := context.Background()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE comments, ratings, places, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
