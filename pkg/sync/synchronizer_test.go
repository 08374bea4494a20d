package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/backend/memory"
	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/sync"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

// orderingBackend wraps memory.Backend and records which operation kind
// reaches the backend first, so the Synchronizer's ordering guarantee can
// be asserted directly instead of inferred from final state.
type orderingBackend struct {
	*memory.Backend
	order *[]string
}

func (b orderingBackend) CreateBlock(ctx context.Context, id string, content []byte) error {
	*b.order = append(*b.order, "block")
	return b.Backend.CreateBlock(ctx, id, content)
}

func (b orderingBackend) CreateVlob(ctx context.Context, id string, blob []byte) (string, string, error) {
	*b.order = append(*b.order, "vlob")
	return b.Backend.CreateVlob(ctx, id, blob)
}

func TestCommitSynchronizesBlocksBeforeVlob(t *testing.T) {
	ctx := context.Background()
	var order []string
	be := orderingBackend{Backend: memory.New(), order: &order}

	blocks := blockstore.New(be)
	vlobs := vlobstore.New(be)
	synchronizer := sync.New(blocks, vlobs)

	blockID, err := blocks.Create(ctx, []byte("chunk"))
	require.NoError(t, err)
	desc, err := vlobs.Create(ctx, []byte("blob referencing the block above"))
	require.NoError(t, err)

	result, err := synchronizer.Commit(ctx, []string{blockID}, desc.ID)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	require.NotEmpty(t, result.ReadSeed)

	require.Len(t, order, 2)
	assert.Equal(t, []string{"block", "vlob"}, order)

	_, err = be.ReadBlock(ctx, blockID)
	require.NoError(t, err)
	_, _, err = be.ReadVlob(ctx, desc.ID, result.ReadSeed, 0)
	require.NoError(t, err)

	assert.Empty(t, blocks.List())
	assert.Empty(t, vlobs.List())
}

func TestCommitSkipsVlobSyncWhenNothingStaged(t *testing.T) {
	ctx := context.Background()
	be := memory.New()
	blocks := blockstore.New(be)
	vlobs := vlobstore.New(be)
	synchronizer := sync.New(blocks, vlobs)

	result, err := synchronizer.Commit(ctx, nil, "vlob-never-created")
	require.NoError(t, err)
	assert.Empty(t, result.Descriptor.ID)
}
