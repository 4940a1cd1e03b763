package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/db"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/queue"
	"github.com/vanshavali/familytree/common/redis"
	"github.com/vanshavali/familytree/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.DB     // set when Store.Driver is postgres
	SQLite    *db.SQLite // set when Store.Driver is sqlite
	Redis     *redis.Client
	Queue     queue.Queue
	Cache     cache.Cache
	Telemetry *telemetry.Telemetry

	cleanupFuncs []func() error
}

// Metrics returns the Prometheus metrics, or nil when telemetry is off
func (c *Components) Metrics() *telemetry.Metrics {
	if c.Telemetry == nil {
		return nil
	}
	return c.Telemetry.Metrics
}

// Shutdown performs graceful shutdown of all components.
// Should be called with defer after Setup().
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// LIFO
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) map[string]string {
	status := map[string]string{}

	check := func(name string, err error) {
		if err != nil {
			status[name] = "unhealthy: " + err.Error()
			return
		}
		status[name] = "healthy"
	}

	if c.DB != nil {
		check("database", c.DB.Health(ctx))
	}
	if c.SQLite != nil {
		check("sqlite", c.SQLite.Health(ctx))
	}
	if c.Redis != nil {
		check("redis", c.Redis.Ping(ctx))
	}
	if c.Queue != nil {
		status["queue"] = "healthy"
	}
	if c.Cache != nil {
		status["cache"] = "healthy"
	}

	return status
}

// Healthy reports whether every component in status is healthy
func Healthy(status map[string]string) bool {
	for _, s := range status {
		if s != "healthy" {
			return false
		}
	}
	return true
}

func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
