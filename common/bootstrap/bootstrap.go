package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/db"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/queue"
	"github.com/vanshavali/familytree/common/redis"
	"github.com/vanshavali/familytree/common/telemetry"
)

// Setup initializes all service components.
// This is the main entry point for all services.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.config != nil {
		components.Config = options.config
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := components.Config
	if options.sqlitePath != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.SQLitePath = options.sqlitePath
	}

	// 2. Initialize logger
	if options.logger != nil {
		components.Logger = options.logger
	} else {
		components.Logger = logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", cfg.Service.Environment,
	)

	fail := func(err error) (*Components, error) {
		_ = components.Shutdown(ctx)
		return nil, err
	}

	// 3. Open the member/user store, migrate, then run the hook
	if !options.noStore {
		if err := setupStore(ctx, components); err != nil {
			return fail(err)
		}

		if options.migrate {
			if err := migrate(ctx, components); err != nil {
				return fail(fmt.Errorf("failed to migrate store: %w", err))
			}
		}

		if options.storeHook != nil {
			components.Logger.Info("running store hook")
			if err := options.storeHook(components); err != nil {
				return fail(fmt.Errorf("store hook failed: %w", err))
			}
		}
	}

	// 4. Connect to Redis when anything needs it
	if !options.noRedis && cfg.NeedsRedis() {
		components.Logger.Info("connecting to redis", "addr", cfg.RedisAddr())
		components.Redis, err = redis.Dial(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, components.Logger)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		components.addCleanup(func() error {
			components.Logger.Info("closing redis connection")
			return components.Redis.Close()
		})
	}

	// 5. Initialize queue (if not skipped)
	if !options.noQueue {
		components.Logger.Info("initializing queue", "type", cfg.Queue.Type)

		switch {
		case cfg.Queue.Type == "redis" && components.Redis != nil:
			components.Queue = queue.NewRedisQueue(components.Redis, cfg.Queue.ChannelPrefix, components.Logger)
		case cfg.Queue.Type == "redis":
			components.Logger.Warn("redis queue requested without redis, using memory queue")
			components.Queue = queue.NewMemoryQueue(components.Logger)
		case cfg.Queue.Type == "memory":
			components.Queue = queue.NewMemoryQueue(components.Logger)
		default:
			return fail(fmt.Errorf("unknown queue type: %s", cfg.Queue.Type))
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing queue")
			return components.Queue.Close()
		})
	}

	// 6. Initialize cache (if not skipped)
	if !options.noCache {
		if cfg.Features.EnableDistributedCache && components.Redis != nil {
			components.Logger.Info("initializing cache", "type", "redis")
			components.Cache = cache.NewRedisCache(components.Redis, cfg.Queue.ChannelPrefix)
		} else {
			components.Logger.Info("initializing cache", "type", "memory")
			components.Cache = cache.NewMemoryCache(components.Logger)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 7. Initialize telemetry (if not skipped)
	if !options.noTelemetry && (cfg.Telemetry.EnableMetrics || cfg.Telemetry.EnablePprof) {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			cfg.Telemetry.PprofPort,
			cfg.Telemetry.MetricsPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx, cfg.Telemetry.EnableMetrics, cfg.Telemetry.EnablePprof); err != nil {
			// Don't fail startup if telemetry fails
			components.Logger.Warn("failed to start telemetry", "error", err)
		}
		components.addCleanup(func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return components.Telemetry.Shutdown(shutdownCtx)
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"store", cfg.Store.Driver,
		"db", components.DB != nil || components.SQLite != nil,
		"redis", components.Redis != nil,
		"queue", components.Queue != nil,
		"cache", components.Cache != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

func setupStore(ctx context.Context, c *Components) error {
	switch c.Config.Store.Driver {
	case "sqlite":
		c.Logger.Info("opening sqlite store", "path", c.Config.Store.SQLitePath)
		s, err := db.OpenSQLite(ctx, c.Config.Store.SQLitePath, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to open sqlite: %w", err)
		}
		c.SQLite = s
		c.addCleanup(s.Close)

	default:
		c.Logger.Info("connecting to database")
		pg, err := db.New(ctx, c.Config, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = pg
		c.addCleanup(func() error {
			c.Logger.Info("closing database connection")
			pg.Close()
			return nil
		})
	}
	return nil
}

func migrate(ctx context.Context, c *Components) error {
	switch {
	case c.DB != nil:
		return c.DB.Migrate(ctx)
	case c.SQLite != nil:
		return c.SQLite.Migrate(ctx)
	}
	return nil
}
