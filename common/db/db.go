package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/logger"
)

const (
	connectTimeout = 5 * time.Second
	healthTimeout  = 3 * time.Second
)

// DB is the Postgres pool holding family members and accounts
type DB struct {
	*pgxpool.Pool
	log *logger.Logger
}

func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	d := cfg.Database
	if d.MaxConns > 0 {
		pc.MaxConns = int32(d.MaxConns)
	}
	if d.MinConns > 0 {
		pc.MinConns = int32(d.MinConns)
	}
	if d.MaxLifetime > 0 {
		pc.MaxConnLifetime = d.MaxLifetime
	}
	if d.MaxIdleTime > 0 {
		pc.MaxConnIdleTime = d.MaxIdleTime
	}
	return pc, nil
}

// New connects to Postgres and returns once a ping succeeds
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected",
		"host", cfg.Database.Host,
		"db", cfg.Database.Database,
		"max_conns", pc.MaxConns)

	return &DB{Pool: pool, log: log}, nil
}

// Close drains the pool
func (db *DB) Close() {
	db.log.Info("closing database connection pool", "acquired", db.Stat().AcquiredConns())
	db.Pool.Close()
}

// Health pings with a short deadline
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return db.Ping(ctx)
}

// Migrate applies the embedded Postgres schema in one transaction.
// Statements are idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, postgresSchema)
		return err
	})
	if err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	db.log.Info("database schema applied")
	return nil
}
