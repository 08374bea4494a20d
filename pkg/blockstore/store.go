package blockstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/parsecfs/parsec/pkg/backend"
	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/metrics"
	"github.com/parsecfs/parsec/pkg/perrors"
)

// Store is the client-side block store.
type Store interface {
	Create(ctx context.Context, content []byte) (id string, err error)
	Read(ctx context.Context, id string) (content []byte, err error)
	Delete(ctx context.Context, id string) error
	Synchronize(ctx context.Context, id string) error
	List() []string
}

type dirtyBlock struct {
	content []byte
	digest  string
}

// client is the default Store backed by an in-memory dirty cache and a
// backend.BlockBackend for durable storage.
type client struct {
	mu    sync.Mutex
	be    backend.BlockBackend
	dirty map[string]dirtyBlock
}

// New returns a Store fronting be.
func New(be backend.BlockBackend) Store {
	return &client{
		be:    be,
		dirty: make(map[string]dirtyBlock),
	}
}

func (c *client) Create(ctx context.Context, content []byte) (string, error) {
	id := uuid.NewString()
	digest := cryptoprim.Digest(content)

	c.mu.Lock()
	stored := make([]byte, len(content))
	copy(stored, content)
	c.dirty[id] = dirtyBlock{content: stored, digest: digest}
	metrics.BlocksDirty.Set(float64(len(c.dirty)))
	c.mu.Unlock()

	metrics.BlockOpsTotal.WithLabelValues("create", "ok").Inc()
	log.WithComponent("blockstore").Debug().Str("block_id", id).Msg("block created locally")
	return id, nil
}

func (c *client) Read(ctx context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	db, ok := c.dirty[id]
	c.mu.Unlock()
	if ok {
		out := make([]byte, len(db.content))
		copy(out, db.content)
		metrics.BlockOpsTotal.WithLabelValues("read", "ok").Inc()
		return out, nil
	}

	content, err := c.be.ReadBlock(ctx, id)
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("read", "error").Inc()
		return nil, err
	}
	metrics.BlockOpsTotal.WithLabelValues("read", "ok").Inc()
	return content, nil
}

func (c *client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.dirty[id]; ok {
		delete(c.dirty, id)
		metrics.BlocksDirty.Set(float64(len(c.dirty)))
		c.mu.Unlock()
		metrics.BlockOpsTotal.WithLabelValues("delete", "ok").Inc()
		return nil
	}
	c.mu.Unlock()

	err := c.be.DeleteBlock(ctx, id)
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.BlockOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *client) Synchronize(ctx context.Context, id string) error {
	c.mu.Lock()
	db, ok := c.dirty[id]
	c.mu.Unlock()
	if !ok {
		return nil // already durable
	}

	if err := c.be.CreateBlock(ctx, id, db.content); err != nil {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: %w", id, err)
	}

	readBack, err := c.be.ReadBlock(ctx, id)
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: verify: %w", id, err)
	}
	if cryptoprim.Digest(readBack) != db.digest {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: %w", id, perrors.ErrIntegrityFailure)
	}

	c.mu.Lock()
	delete(c.dirty, id)
	metrics.BlocksDirty.Set(float64(len(c.dirty)))
	c.mu.Unlock()

	metrics.BlockOpsTotal.WithLabelValues("synchronize", "ok").Inc()
	log.WithComponent("blockstore").Debug().Str("block_id", id).Msg("block synchronized")
	return nil
}

func (c *client) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.dirty))
	for id := range c.dirty {
		ids = append(ids, id)
	}
	return ids
}
