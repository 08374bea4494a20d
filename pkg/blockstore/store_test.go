package blockstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/perrors"
)

func TestCreateReadLocal(t *testing.T) {
	ctx := context.Background()
	store := blockstore.New(memory.New())

	id, err := store.Create(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Contains(t, store.List(), id)

	content, err := store.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
}

func TestSynchronizePromotesAndClears(t *testing.T) {
	ctx := context.Background()
	be := memory.New()
	store := blockstore.New(be)

	id, err := store.Create(ctx, []byte("payload"))
	require.NoError(t, err)

	require.NoError(t, store.Synchronize(ctx, id))
	assert.NotContains(t, store.List(), id)

	content, err := be.ReadBlock(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), content)
}

func TestSynchronizeIsNoOpWhenAlreadyDurable(t *testing.T) {
	ctx := context.Background()
	store := blockstore.New(memory.New())

	id, err := store.Create(ctx, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Synchronize(ctx, id))

	// second call targets an id no longer in the dirty cache: no-op, no error
	assert.NoError(t, store.Synchronize(ctx, id))
}

func TestReadUnknownFails(t *testing.T) {
	ctx := context.Background()
	store := blockstore.New(memory.New())

	_, err := store.Read(ctx, "does-not-exist")
	assert.ErrorIs(t, err, perrors.ErrBlockNotFound)
}

func TestDeleteLocalThenRemote(t *testing.T) {
	ctx := context.Background()
	be := memory.New()
	store := blockstore.New(be)

	id, err := store.Create(ctx, []byte("gone soon"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))
	assert.NotContains(t, store.List(), id)

	id2, err := store.Create(ctx, []byte("sync then delete"))
	require.NoError(t, err)
	require.NoError(t, store.Synchronize(ctx, id2))
	require.NoError(t, store.Delete(ctx, id2))

	_, err = be.ReadBlock(ctx, id2)
	assert.ErrorIs(t, err, perrors.ErrBlockNotFound)
}
