package vlobstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/parsecfs/parsec/pkg/backend"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/metrics"
	"github.com/parsecfs/parsec/pkg/perrors"
)

var bucketDirtyVlobs = []byte("dirty_vlobs")

// boltEntry is entry's on-disk shape: at most one staged draft per vlob,
// same supersede-on-Update semantics, just durable across restarts.
type boltEntry struct {
	ReadSeed    string `json:"read_seed"`
	WriteSeed   string `json:"write_seed"`
	Synced      bool   `json:"synced"`
	BaseVersion int    `json:"base_version"`
	Staged      []byte `json:"staged,omitempty"`
}

type boltClient struct {
	db *bolt.DB
	be backend.VlobBackend
}

// NewBolt opens (creating if absent) a bbolt database at path and returns
// a Store whose staged, not-yet-synchronized drafts survive restarts.
func NewBolt(path string, be backend.VlobBackend) (Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open vlob dirty cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDirtyVlobs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init vlob dirty cache %s: %w", path, err)
	}
	return &boltClient{db: db, be: be}, nil
}

func (c *boltClient) Create(ctx context.Context, blob []byte) (Descriptor, error) {
	readSeed, err := randomSeed()
	if err != nil {
		return Descriptor{}, err
	}
	writeSeed, err := randomSeed()
	if err != nil {
		return Descriptor{}, err
	}
	id := uuid.NewString()

	e := boltEntry{ReadSeed: readSeed, WriteSeed: writeSeed, Staged: blob}
	if err := c.put(id, e); err != nil {
		return Descriptor{}, err
	}
	c.refreshGauge()
	metrics.VlobOpsTotal.WithLabelValues("create", "ok").Inc()
	log.WithComponent("vlobstore").Debug().Str("vlob_id", id).Msg("vlob created locally (bolt)")
	return Descriptor{ID: id, ReadSeed: readSeed, WriteSeed: writeSeed}, nil
}

func (c *boltClient) Read(ctx context.Context, id, readSeed string, version int) ([]byte, int, error) {
	e, found, err := c.lookup(id)
	if err != nil {
		return nil, 0, err
	}

	if found {
		if e.ReadSeed != readSeed {
			metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
			return nil, 0, fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
		}
		latest := e.BaseVersion
		if e.Staged != nil {
			latest = e.BaseVersion + 1
		}
		if version == 0 {
			version = latest
		}
		if e.Staged != nil && version == e.BaseVersion+1 {
			metrics.VlobOpsTotal.WithLabelValues("read", "ok").Inc()
			return append([]byte(nil), e.Staged...), version, nil
		}
		if version > latest || !e.Synced {
			metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
			return nil, 0, fmt.Errorf("vlob %s version %d: %w", id, version, perrors.ErrBadVersion)
		}
		// version <= BaseVersion and durable: fall through to the backend.
	}

	blob, actual, err := c.be.ReadVlob(ctx, id, readSeed, version)
	if err != nil {
		metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
		return nil, 0, err
	}
	metrics.VlobOpsTotal.WithLabelValues("read", "ok").Inc()
	return blob, actual, nil
}

func (c *boltClient) Update(ctx context.Context, id, writeSeed string, version int, blob []byte) error {
	e, found, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !found {
		e = boltEntry{WriteSeed: writeSeed, Synced: true, BaseVersion: version - 1}
	}
	if e.WriteSeed != writeSeed {
		metrics.VlobOpsTotal.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
	}

	expected := e.BaseVersion + 1
	if version != expected {
		metrics.VlobOpsTotal.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("vlob %s: expected version %d, got %d: %w", id, expected, version, perrors.ErrVersionConflict)
	}

	e.Staged = blob
	if err := c.put(id, e); err != nil {
		return err
	}
	c.refreshGauge()
	metrics.VlobOpsTotal.WithLabelValues("update", "ok").Inc()
	return nil
}

func (c *boltClient) Delete(ctx context.Context, id, writeSeed string) error {
	e, found, err := c.lookup(id)
	if err != nil {
		return err
	}
	if found && !e.Synced {
		if err := c.remove(id); err != nil {
			return err
		}
		c.refreshGauge()
		metrics.VlobOpsTotal.WithLabelValues("delete", "ok").Inc()
		return nil
	}

	if err := c.be.DeleteVlob(ctx, id, writeSeed); err != nil {
		metrics.VlobOpsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	_ = c.remove(id)
	c.refreshGauge()
	metrics.VlobOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *boltClient) Synchronize(ctx context.Context, id string) (SyncResult, error) {
	e, found, err := c.lookup(id)
	if err != nil {
		return SyncResult{}, err
	}
	if !found || e.Staged == nil {
		return SyncResult{}, nil
	}

	if !e.Synced {
		readSeed, writeSeed, err := c.be.CreateVlob(ctx, id, e.Staged)
		if err != nil {
			metrics.VlobOpsTotal.WithLabelValues("synchronize", "error").Inc()
			return SyncResult{}, fmt.Errorf("synchronize vlob %s: %w", id, err)
		}
		e.ReadSeed, e.WriteSeed = readSeed, writeSeed
		e.Synced = true
		e.BaseVersion = 1
		e.Staged = nil
	} else {
		version := e.BaseVersion + 1
		if err := c.be.UpdateVlob(ctx, id, e.WriteSeed, version, e.Staged); err != nil {
			metrics.VlobOpsTotal.WithLabelValues("synchronize", "error").Inc()
			return SyncResult{}, fmt.Errorf("synchronize vlob %s: %w", id, err)
		}
		e.BaseVersion = version
		e.Staged = nil
	}

	readSeed, writeSeed := e.ReadSeed, e.WriteSeed
	if err := c.remove(id); err != nil {
		return SyncResult{}, err
	}
	c.refreshGauge()
	metrics.VlobOpsTotal.WithLabelValues("synchronize", "ok").Inc()
	log.WithComponent("vlobstore").Debug().Str("vlob_id", id).Msg("vlob synchronized (bolt)")
	return SyncResult{Rotated: false, Descriptor: Descriptor{ID: id, ReadSeed: readSeed, WriteSeed: writeSeed}}, nil
}

func (c *boltClient) List() []string {
	var ids []string
	_ = c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyVlobs).ForEach(func(k, v []byte) error {
			var e boltEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.Staged != nil {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	return ids
}

func (c *boltClient) put(id string, e boltEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal dirty vlob %s: %w", id, err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyVlobs).Put([]byte(id), raw)
	})
	if err != nil {
		return fmt.Errorf("store dirty vlob %s: %w", id, err)
	}
	return nil
}

func (c *boltClient) remove(id string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirtyVlobs).Delete([]byte(id))
	})
}

func (c *boltClient) lookup(id string) (boltEntry, bool, error) {
	var e boltEntry
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDirtyVlobs).Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &e)
	})
	if err != nil {
		return boltEntry{}, false, fmt.Errorf("load dirty vlob %s: %w", id, err)
	}
	return e, found, nil
}

func (c *boltClient) refreshGauge() {
	metrics.VlobsDirty.Set(float64(len(c.List())))
}

// Close releases the underlying bbolt database handle.
func (c *boltClient) Close() error {
	return c.db.Close()
}
