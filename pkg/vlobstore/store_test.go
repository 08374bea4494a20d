package vlobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/perrors"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

func TestCreateReadLocalBeforeSync(t *testing.T) {
	ctx := context.Background()
	store := vlobstore.New(memory.New())

	desc, err := store.Create(ctx, []byte("v1"))
	require.NoError(t, err)
	assert.Contains(t, store.List(), desc.ID)

	blob, version, err := store.Read(ctx, desc.ID, desc.ReadSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), blob)
	assert.Equal(t, 1, version)
}

func TestUpdateSupersedesUnsyncedDraft(t *testing.T) {
	ctx := context.Background()
	store := vlobstore.New(memory.New())

	desc, err := store.Create(ctx, []byte("v1"))
	require.NoError(t, err)

	err = store.Update(ctx, desc.ID, desc.WriteSeed, 5, []byte("v-bad"))
	assert.ErrorIs(t, err, perrors.ErrVersionConflict)

	require.NoError(t, store.Update(ctx, desc.ID, desc.WriteSeed, 1, []byte("v1-revised")))

	blob, version, err := store.Read(ctx, desc.ID, desc.ReadSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1-revised"), blob)
	assert.Equal(t, 1, version)
}

func TestTrustSeedMismatch(t *testing.T) {
	ctx := context.Background()
	store := vlobstore.New(memory.New())

	desc, err := store.Create(ctx, []byte("v1"))
	require.NoError(t, err)

	_, _, err = store.Read(ctx, desc.ID, "wrong-seed", 0)
	assert.ErrorIs(t, err, perrors.ErrTrustSeed)

	err = store.Update(ctx, desc.ID, "wrong-seed", 1, []byte("v2"))
	assert.ErrorIs(t, err, perrors.ErrTrustSeed)
}

func TestSynchronizePromotesDraftThenFollowingUpdate(t *testing.T) {
	ctx := context.Background()
	be := memory.New()
	store := vlobstore.New(be)

	desc, err := store.Create(ctx, []byte("v1"))
	require.NoError(t, err)

	result, err := store.Synchronize(ctx, desc.ID)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.NotContains(t, store.List(), desc.ID)
	// The backend mints its own trust seeds on the first promote; they
	// need not (and generally don't) match the ones Create minted locally.
	require.NotEmpty(t, result.ReadSeed)
	require.NotEmpty(t, result.WriteSeed)

	blob, version, err := be.ReadVlob(ctx, desc.ID, result.ReadSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), blob)
	assert.Equal(t, 1, version)

	require.NoError(t, store.Update(ctx, desc.ID, result.WriteSeed, 2, []byte("v2")))
	result2, err := store.Synchronize(ctx, desc.ID)
	require.NoError(t, err)
	assert.False(t, result2.Rotated)
	assert.Equal(t, result.ReadSeed, result2.ReadSeed)
	assert.Equal(t, result.WriteSeed, result2.WriteSeed)

	blob, version, err = be.ReadVlob(ctx, desc.ID, result.ReadSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob)
	assert.Equal(t, 2, version)
}

func TestReadUnknownVlobFails(t *testing.T) {
	ctx := context.Background()
	store := vlobstore.New(memory.New())

	_, _, err := store.Read(ctx, "nope", "seed", 0)
	assert.ErrorIs(t, err, perrors.ErrVlobNotFound)
}
