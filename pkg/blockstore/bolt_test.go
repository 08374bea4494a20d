package blockstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/blockstore"
)

func TestBoltStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "blocks.db")
	be := memory.New()

	store, err := blockstore.NewBolt(dbPath, be)
	require.NoError(t, err)

	id, err := store.Create(ctx, []byte("persisted"))
	require.NoError(t, err)
	assert.Contains(t, store.List(), id)
	require.NoError(t, store.(interface{ Close() error }).Close())

	reopened, err := blockstore.NewBolt(dbPath, be)
	require.NoError(t, err)
	assert.Contains(t, reopened.List(), id)

	content, err := reopened.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), content)

	require.NoError(t, reopened.Synchronize(ctx, id))
	assert.NotContains(t, reopened.List(), id)
}
