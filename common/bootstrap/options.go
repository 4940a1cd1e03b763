package bootstrap

import (
	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/logger"
)

// Option configures Setup
type Option func(*options)

type options struct {
	config *config.Config
	logger *logger.Logger

	// store
	noStore    bool
	sqlitePath string
	migrate    bool
	storeHook  func(*Components) error

	noRedis     bool
	noQueue     bool
	noCache     bool
	noTelemetry bool
}

// WithConfig uses cfg instead of loading from the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger uses log instead of building one from the config
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithSQLite forces the embedded store at path, whatever STORE_DRIVER says
func WithSQLite(path string) Option {
	return func(o *options) { o.sqlitePath = path }
}

// WithMigrations applies the embedded schema once the store is open
func WithMigrations() Option {
	return func(o *options) { o.migrate = true }
}

// WithStoreHook runs hook after the store is open and migrated, e.g. to seed a tree
func WithStoreHook(hook func(*Components) error) Option {
	return func(o *options) { o.storeHook = hook }
}

// WithoutStore skips the member/user store
func WithoutStore() Option {
	return func(o *options) { o.noStore = true }
}

// WithoutRedis skips Redis even when the config would need it.
// Sessions, cache, queue and rate limits then fall back to memory.
func WithoutRedis() Option {
	return func(o *options) { o.noRedis = true }
}

// WithoutQueue skips the notification queue; no events are published
func WithoutQueue() Option {
	return func(o *options) { o.noQueue = true }
}

// WithoutCache skips the state/session cache
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// WithoutTelemetry skips the pprof and metrics listeners
func WithoutTelemetry() Option {
	return func(o *options) { o.noTelemetry = true }
}
