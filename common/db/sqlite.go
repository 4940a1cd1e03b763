package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vanshavali/familytree/common/logger"
)

// SQLite is the embedded single-file store used when no Postgres is available
type SQLite struct {
	*sql.DB
	path string
	log  *logger.Logger
}

// OpenSQLite opens (creating if needed) the database file at path
func OpenSQLite(ctx context.Context, path string, log *logger.Logger) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Info("sqlite opened", "path", path)
	return &SQLite{DB: sqlDB, path: path, log: log}, nil
}

// Migrate applies the embedded SQLite schema
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	s.log.Info("sqlite schema applied", "path", s.path)
	return nil
}

// Health checks the file is still reachable
func (s *SQLite) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.PingContext(ctx)
}

// Close closes the database file
func (s *SQLite) Close() error {
	s.log.Info("closing sqlite", "path", s.path)
	return s.DB.Close()
}
