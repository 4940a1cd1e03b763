package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/logger"
)

func TestOpenSQLite_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tree.db")

	s, err := OpenSQLite(ctx, path, logger.Discard())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Health(ctx))

	var n int
	err = s.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'family_members')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
