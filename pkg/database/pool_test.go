package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := connectBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), nil, "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, nil, "connect postgres", func() error {
		calls++
		return errors.New("dial tcp: connection refused")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/foodiehub?sslmode=disable", MigrationURL("postgres://u:p@db:5432/foodiehub?sslmode=disable"))
	assert.Equal(t, "pgx5://db/foodiehub", MigrationURL("postgresql://db/foodiehub"))
	assert.Equal(t, "pgx5://db/x", MigrationURL("pgx5://db/x"))
}

func TestRunMigrations_MissingDirectory(t *testing.T) {
	err := RunMigrations(context.Background(), "postgres://localhost/x", fstest.MapFS{}, "migrations", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open migration source")
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig("postgres://localhost/foodiehub")
	assert.Equal(t, "postgres://localhost/foodiehub", cfg.URL)
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
}
