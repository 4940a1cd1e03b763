package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/queue"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("bootstrap-test")
	require.NoError(t, err)
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.RateLimit.Enabled = false
	cfg.Queue.Type = "memory"
	cfg.Features.EnableDistributedCache = false
	return cfg
}

func TestSetup_SQLiteWithMigrations(t *testing.T) {
	ctx := context.Background()
	hooked := false

	c, err := Setup(ctx, "bootstrap-test",
		WithConfig(sqliteConfig(t)),
		WithLogger(logger.Discard()),
		WithoutTelemetry(),
		WithMigrations(),
		WithStoreHook(func(c *Components) error {
			hooked = c.SQLite != nil
			return nil
		}),
	)
	require.NoError(t, err)

	assert.True(t, hooked)
	assert.Nil(t, c.DB)
	require.NotNil(t, c.SQLite)
	assert.Nil(t, c.Redis)
	assert.IsType(t, &queue.MemoryQueue{}, c.Queue)
	assert.IsType(t, &cache.MemoryCache{}, c.Cache)
	assert.Nil(t, c.Metrics())

	health := c.Health(ctx)
	assert.True(t, Healthy(health), "%v", health)
	assert.Equal(t, "healthy", health["sqlite"])

	require.NoError(t, c.Shutdown(ctx))
}

func TestSetup_SkipEverything(t *testing.T) {
	ctx := context.Background()

	c, err := Setup(ctx, "bootstrap-test",
		WithConfig(sqliteConfig(t)),
		WithLogger(logger.Discard()),
		WithoutStore(),
		WithoutQueue(),
		WithoutCache(),
		WithoutTelemetry(),
		WithoutRedis(),
	)
	require.NoError(t, err)
	assert.Empty(t, c.Health(ctx))
	require.NoError(t, c.Shutdown(ctx))
}

func TestSetup_WithSQLiteOverridesDriver(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.Store.Driver = "postgres"
	path := filepath.Join(t.TempDir(), "override.db")

	c, err := Setup(ctx, "bootstrap-test",
		WithConfig(cfg),
		WithLogger(logger.Discard()),
		WithoutTelemetry(),
		WithSQLite(path),
	)
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	assert.Nil(t, c.DB)
	require.NotNil(t, c.SQLite)
	assert.Equal(t, "sqlite", c.Config.Store.Driver)
}

func TestSetup_StoreHookFailureCleansUp(t *testing.T) {
	ctx := context.Background()

	_, err := Setup(ctx, "bootstrap-test",
		WithConfig(sqliteConfig(t)),
		WithLogger(logger.Discard()),
		WithoutTelemetry(),
		WithStoreHook(func(*Components) error { return assert.AnError }),
	)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestHealthy(t *testing.T) {
	assert.True(t, Healthy(map[string]string{"a": "healthy"}))
	assert.False(t, Healthy(map[string]string{"a": "healthy", "b": "unhealthy: down"}))
}
