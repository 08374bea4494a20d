package vlobstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

func TestBoltVlobStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "vlobs.db")
	be := memory.New()

	store, err := vlobstore.NewBolt(dbPath, be)
	require.NoError(t, err)

	desc, err := store.Create(ctx, []byte("first draft"))
	require.NoError(t, err)
	assert.Contains(t, store.List(), desc.ID)
	require.NoError(t, store.(interface{ Close() error }).Close())

	reopened, err := vlobstore.NewBolt(dbPath, be)
	require.NoError(t, err)
	assert.Contains(t, reopened.List(), desc.ID)

	blob, version, err := reopened.Read(ctx, desc.ID, desc.ReadSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("first draft"), blob)
	assert.Equal(t, 1, version)

	result, err := reopened.Synchronize(ctx, desc.ID)
	require.NoError(t, err)
	assert.Equal(t, desc.ID, result.Descriptor.ID)
	assert.NotContains(t, reopened.List(), desc.ID)

	require.NoError(t, reopened.Update(ctx, desc.ID, desc.WriteSeed, 2, []byte("second draft")))
	assert.Contains(t, reopened.List(), desc.ID)
}
