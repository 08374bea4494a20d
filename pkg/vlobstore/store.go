package vlobstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/parsecfs/parsec/pkg/backend"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/metrics"
	"github.com/parsecfs/parsec/pkg/perrors"
)

// Descriptor identifies a freshly created vlob and the trust seeds that
// authorize reading and updating it.
type Descriptor struct {
	ID        string
	ReadSeed  string
	WriteSeed string
}

// SyncResult reports the outcome of Synchronize.
type SyncResult struct {
	Rotated bool
	Descriptor
}

// Store is the client-side vlob store.
type Store interface {
	Create(ctx context.Context, blob []byte) (Descriptor, error)
	Read(ctx context.Context, id, readSeed string, version int) (blob []byte, actualVersion int, err error)
	Update(ctx context.Context, id, writeSeed string, version int, blob []byte) error
	Delete(ctx context.Context, id, writeSeed string) error
	Synchronize(ctx context.Context, id string) (SyncResult, error)
	List() []string
}

// entry tracks at most one not-yet-synchronized draft per vlob: every
// local Update before a commit supersedes the previous draft rather than
// stacking a new version, mirroring the file engine's flush semantics.
type entry struct {
	readSeed, writeSeed string
	synced              bool // true once a CreateVlob has reached the backend
	baseVersion         int  // highest version durable at the backend
	staged              []byte
}

type client struct {
	mu  sync.Mutex
	be  backend.VlobBackend
	dty map[string]*entry
}

// New returns a Store fronting be.
func New(be backend.VlobBackend) Store {
	return &client{be: be, dty: make(map[string]*entry)}
}

func (c *client) Create(ctx context.Context, blob []byte) (Descriptor, error) {
	readSeed, err := randomSeed()
	if err != nil {
		return Descriptor{}, err
	}
	writeSeed, err := randomSeed()
	if err != nil {
		return Descriptor{}, err
	}

	id := uuid.NewString()
	stored := make([]byte, len(blob))
	copy(stored, blob)

	c.mu.Lock()
	c.dty[id] = &entry{readSeed: readSeed, writeSeed: writeSeed, staged: stored}
	metrics.VlobsDirty.Set(float64(len(c.dty)))
	c.mu.Unlock()

	metrics.VlobOpsTotal.WithLabelValues("create", "ok").Inc()
	log.WithComponent("vlobstore").Debug().Str("vlob_id", id).Msg("vlob created locally")
	return Descriptor{ID: id, ReadSeed: readSeed, WriteSeed: writeSeed}, nil
}

func (c *client) Read(ctx context.Context, id, readSeed string, version int) ([]byte, int, error) {
	c.mu.Lock()
	e, ok := c.dty[id]
	c.mu.Unlock()

	if ok {
		if e.readSeed != readSeed {
			metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
			return nil, 0, fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
		}
		latest := e.baseVersion
		if e.staged != nil {
			latest = e.baseVersion + 1
		}
		if version == 0 {
			version = latest
		}
		if e.staged != nil && version == e.baseVersion+1 {
			out := make([]byte, len(e.staged))
			copy(out, e.staged)
			metrics.VlobOpsTotal.WithLabelValues("read", "ok").Inc()
			return out, version, nil
		}
		if version > latest {
			metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
			return nil, 0, fmt.Errorf("vlob %s version %d: %w", id, version, perrors.ErrBadVersion)
		}
		if !e.synced {
			metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
			return nil, 0, fmt.Errorf("vlob %s version %d: %w", id, version, perrors.ErrBadVersion)
		}
		// version <= baseVersion and durable: fall through to the backend.
	}

	blob, actual, err := c.be.ReadVlob(ctx, id, readSeed, version)
	if err != nil {
		metrics.VlobOpsTotal.WithLabelValues("read", "error").Inc()
		return nil, 0, err
	}
	metrics.VlobOpsTotal.WithLabelValues("read", "ok").Inc()
	return blob, actual, nil
}

func (c *client) Update(ctx context.Context, id, writeSeed string, version int, blob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.dty[id]
	if !ok {
		e = &entry{writeSeed: writeSeed, synced: true, baseVersion: version - 1}
		c.dty[id] = e
	}
	if e.writeSeed != writeSeed {
		metrics.VlobOpsTotal.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
	}

	expected := e.baseVersion + 1
	if version != expected {
		metrics.VlobOpsTotal.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("vlob %s: expected version %d, got %d: %w", id, expected, version, perrors.ErrVersionConflict)
	}

	stored := make([]byte, len(blob))
	copy(stored, blob)
	e.staged = stored
	metrics.VlobsDirty.Set(float64(len(c.dty)))
	metrics.VlobOpsTotal.WithLabelValues("update", "ok").Inc()
	return nil
}

func (c *client) Delete(ctx context.Context, id, writeSeed string) error {
	c.mu.Lock()
	if e, ok := c.dty[id]; ok && !e.synced {
		delete(c.dty, id)
		metrics.VlobsDirty.Set(float64(len(c.dty)))
		c.mu.Unlock()
		metrics.VlobOpsTotal.WithLabelValues("delete", "ok").Inc()
		return nil
	}
	c.mu.Unlock()

	if err := c.be.DeleteVlob(ctx, id, writeSeed); err != nil {
		metrics.VlobOpsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	c.mu.Lock()
	delete(c.dty, id)
	c.mu.Unlock()
	metrics.VlobOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *client) Synchronize(ctx context.Context, id string) (SyncResult, error) {
	c.mu.Lock()
	e, ok := c.dty[id]
	c.mu.Unlock()
	if !ok || e.staged == nil {
		return SyncResult{}, nil
	}

	var readSeed, writeSeed string
	if !e.synced {
		rs, ws, err := c.be.CreateVlob(ctx, id, e.staged)
		if err != nil {
			metrics.VlobOpsTotal.WithLabelValues("synchronize", "error").Inc()
			return SyncResult{}, fmt.Errorf("synchronize vlob %s: %w", id, err)
		}
		readSeed, writeSeed = rs, ws
		c.mu.Lock()
		e.readSeed, e.writeSeed = readSeed, writeSeed
		e.synced = true
		e.baseVersion = 1
		e.staged = nil
		c.mu.Unlock()
	} else {
		version := e.baseVersion + 1
		if err := c.be.UpdateVlob(ctx, id, e.writeSeed, version, e.staged); err != nil {
			metrics.VlobOpsTotal.WithLabelValues("synchronize", "error").Inc()
			return SyncResult{}, fmt.Errorf("synchronize vlob %s: %w", id, err)
		}
		readSeed, writeSeed = e.readSeed, e.writeSeed
		c.mu.Lock()
		e.baseVersion = version
		e.staged = nil
		c.mu.Unlock()
	}

	c.mu.Lock()
	delete(c.dty, id)
	metrics.VlobsDirty.Set(float64(len(c.dty)))
	c.mu.Unlock()

	metrics.VlobOpsTotal.WithLabelValues("synchronize", "ok").Inc()
	log.WithComponent("vlobstore").Debug().Str("vlob_id", id).Msg("vlob synchronized")
	return SyncResult{Rotated: false, Descriptor: Descriptor{ID: id, ReadSeed: readSeed, WriteSeed: writeSeed}}, nil
}

func (c *client) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.dty))
	for id, e := range c.dty {
		if e.staged != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func randomSeed() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate trust seed: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
