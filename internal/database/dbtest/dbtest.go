// Package dbtest starts a disposable PostgreSQL container with the storefront schema applied.
package dbtest

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container starts PostgreSQL and returns a database configuration pointing at it.
// The container is terminated when the test finishes.
func Container(t *testing.T) config.DatabaseConfig {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		Database:        "storefront_test",
		MaxConnections:  10,
		MinConnections:  1,
		MaxConnLifetime: 300,
		QueryTimeout:    5 * time.Second,
	}
}

// NewPool starts PostgreSQL, applies all migrations and returns a pool closed on cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	cfg := Container(t)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = database.Migrate(ctx, pool, zerolog.Nop())
	require.NoError(t, err)

	return pool
}

// Truncate empties all storefront tables and resets identity sequences.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE processed_events, order_items, orders, products RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
