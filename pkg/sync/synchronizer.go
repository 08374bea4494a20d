package sync

import (
	"context"
	"fmt"

	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

// Synchronizer wraps a block store and a vlob store and commits dirty
// state from one to the other in the order the backend requires.
type Synchronizer struct {
	Blocks blockstore.Store
	Vlobs  vlobstore.Store
}

// New wires a Synchronizer to its stores.
func New(blocks blockstore.Store, vlobs vlobstore.Store) *Synchronizer {
	return &Synchronizer{Blocks: blocks, Vlobs: vlobs}
}

// Commit synchronizes every id in blockIDs, in order, then synchronizes
// vlobID — never the reverse, so a promoted vlob cannot reference a block
// the backend has not yet durably stored.
func (s *Synchronizer) Commit(ctx context.Context, blockIDs []string, vlobID string) (vlobstore.SyncResult, error) {
	for _, id := range blockIDs {
		if err := s.Blocks.Synchronize(ctx, id); err != nil {
			return vlobstore.SyncResult{}, fmt.Errorf("synchronize block %s: %w", id, err)
		}
	}

	result, err := s.Vlobs.Synchronize(ctx, vlobID)
	if err != nil {
		return vlobstore.SyncResult{}, fmt.Errorf("synchronize vlob %s: %w", vlobID, err)
	}
	return result, nil
}
