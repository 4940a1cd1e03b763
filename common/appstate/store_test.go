package appstate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/logger"
)

func TestStore_DispatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(logger.Discard())
	defer c.Close()
	store := NewStore(c, time.Hour)

	user := uuid.New()
	st, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, PhaseSignedOut, st.Phase)

	st, err = store.Dispatch(ctx, user, SignedIn{UserID: user}, FetchSucceeded{At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, st.Phase)

	loaded, err := store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, loaded.Phase)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, user, loaded.UserID)

	_, err = store.Dispatch(ctx, user, SignedOut{})
	require.NoError(t, err)
	_, ok, _ := c.Get(ctx, stateKey(user))
	assert.False(t, ok)
}
