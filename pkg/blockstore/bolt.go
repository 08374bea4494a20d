package blockstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/parsecfs/parsec/pkg/backend"
	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/metrics"
	"github.com/parsecfs/parsec/pkg/perrors"
)

var bucketDirtyBlocks = []byte("dirty_blocks")

type boltRecord struct {
	Content []byte `json:"content"`
	Digest  string `json:"digest"`
}

// boltClient is a Store whose dirty cache survives process restart,
// backed by a bbolt bucket instead of an in-memory map.
type boltClient struct {
	db *bolt.DB
	be backend.BlockBackend
}

// NewBolt opens (creating if absent) a bbolt database at path and returns
// a Store whose locally-created, not-yet-synchronized blocks are
// durable across restarts.
func NewBolt(path string, be backend.BlockBackend) (Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open block dirty cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDirtyBlocks)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init block dirty cache %s: %w", path, err)
	}
	return &boltClient{db: db, be: be}, nil
}

func (c *boltClient) Create(ctx context.Context, content []byte) (string, error) {
	id := uuid.NewString()
	rec := boltRecord{Content: content, Digest: cryptoprim.Digest(content)}
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal dirty block %s: %w", id, err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyBlocks).Put([]byte(id), raw)
	})
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("create", "error").Inc()
		return "", fmt.Errorf("store dirty block %s: %w", id, err)
	}
	c.refreshGauge()
	metrics.BlockOpsTotal.WithLabelValues("create", "ok").Inc()
	log.WithComponent("blockstore").Debug().Str("block_id", id).Msg("block created locally (bolt)")
	return id, nil
}

func (c *boltClient) Read(ctx context.Context, id string) ([]byte, error) {
	rec, found, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	if found {
		metrics.BlockOpsTotal.WithLabelValues("read", "ok").Inc()
		return rec.Content, nil
	}

	content, err := c.be.ReadBlock(ctx, id)
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("read", "error").Inc()
		return nil, err
	}
	metrics.BlockOpsTotal.WithLabelValues("read", "ok").Inc()
	return content, nil
}

func (c *boltClient) Delete(ctx context.Context, id string) error {
	_, found, err := c.lookup(id)
	if err != nil {
		return err
	}
	if found {
		err := c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketDirtyBlocks).Delete([]byte(id))
		})
		if err != nil {
			metrics.BlockOpsTotal.WithLabelValues("delete", "error").Inc()
			return fmt.Errorf("delete dirty block %s: %w", id, err)
		}
		c.refreshGauge()
		metrics.BlockOpsTotal.WithLabelValues("delete", "ok").Inc()
		return nil
	}

	if err := c.be.DeleteBlock(ctx, id); err != nil {
		metrics.BlockOpsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.BlockOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *boltClient) Synchronize(ctx context.Context, id string) error {
	rec, found, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if err := c.be.CreateBlock(ctx, id, rec.Content); err != nil {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: %w", id, err)
	}
	readBack, err := c.be.ReadBlock(ctx, id)
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: verify: %w", id, err)
	}
	if cryptoprim.Digest(readBack) != rec.Digest {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("synchronize block %s: %w", id, perrors.ErrIntegrityFailure)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyBlocks).Delete([]byte(id))
	})
	if err != nil {
		metrics.BlockOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return fmt.Errorf("clear dirty block %s: %w", id, err)
	}
	c.refreshGauge()
	metrics.BlockOpsTotal.WithLabelValues("synchronize", "ok").Inc()
	return nil
}

func (c *boltClient) List() []string {
	var ids []string
	_ = c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyBlocks).ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids
}

func (c *boltClient) lookup(id string) (boltRecord, bool, error) {
	var rec boltRecord
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDirtyBlocks).Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return boltRecord{}, false, fmt.Errorf("load dirty block %s: %w", id, err)
	}
	return rec, found, nil
}

func (c *boltClient) refreshGauge() {
	metrics.BlocksDirty.Set(float64(len(c.List())))
}

// Close releases the underlying bbolt database handle.
func (c *boltClient) Close() error {
	return c.db.Close()
}
