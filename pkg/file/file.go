package file

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/log"
	"github.com/parsecfs/parsec/pkg/metrics"
	"github.com/parsecfs/parsec/pkg/perrors"
	filesync "github.com/parsecfs/parsec/pkg/sync"
	"github.com/parsecfs/parsec/pkg/types"
	"github.com/parsecfs/parsec/pkg/vlobstore"
)

// Engine owns the block and vlob stores and the process-wide File
// registry: at most one handle exists per vlob id at any time.
type Engine struct {
	Blocks blockstore.Store
	Vlobs  vlobstore.Store
	sync   *filesync.Synchronizer

	mu       sync.Mutex
	registry map[string]*File
}

// NewEngine wires an Engine to its backing stores.
func NewEngine(blocks blockstore.Store, vlobs vlobstore.Store) *Engine {
	return &Engine{
		Blocks:   blocks,
		Vlobs:    vlobs,
		sync:     filesync.New(blocks, vlobs),
		registry: make(map[string]*File),
	}
}

func (e *Engine) register(f *File) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry[f.ID] = f
	metrics.FilesOpen.Set(float64(len(e.registry)))
}

func (e *Engine) lookup(id string) (*File, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.registry[id]
	return f, ok
}

func (e *Engine) unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.registry, id)
	metrics.FilesOpen.Set(float64(len(e.registry)))
}

func (e *Engine) rekey(oldID string, f *File) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.registry, oldID)
	e.registry[f.ID] = f
}

// File is a session-scoped mutable view over one vlob, uniquely indexed
// by vlob id within its owning Engine.
type File struct {
	engine *Engine
	mu     sync.Mutex

	ID        string
	Key       *cryptoprim.SymKey
	ReadSeed  string
	WriteSeed string
	Version   int
	Dirty     bool
	Created   time.Time
	Updated   time.Time

	modQueue []types.PendingOp
}

// Create builds an empty file: one zero-length block, a fresh vlob
// encryption key, and a freshly created, uncommitted vlob.
func (e *Engine) Create(ctx context.Context) (*File, error) {
	group, err := newGroup(ctx, e.Blocks, nil)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	key, err := cryptoprim.GenerateSymKey()
	if err != nil {
		return nil, fmt.Errorf("create file: generate vlob key: %w", err)
	}
	blob, err := types.EncodeBlob([]types.BlockGroup{group})
	if err != nil {
		return nil, fmt.Errorf("create file: encode blob: %w", err)
	}
	ciphertext, err := key.Encrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("create file: encrypt blob: %w", err)
	}

	desc, err := e.Vlobs.Create(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	now := time.Now()
	f := &File{
		engine:    e,
		ID:        desc.ID,
		Key:       key,
		ReadSeed:  desc.ReadSeed,
		WriteSeed: desc.WriteSeed,
		Version:   0,
		Dirty:     true,
		Created:   now,
		Updated:   now,
	}
	e.register(f)
	log.WithComponent("file").Debug().Str("file_id", f.ID).Msg("file created")
	return f, nil
}

// Load returns the registered handle for id if one is already open;
// otherwise it reads the vlob, decodes its committed/staged version, and
// registers a new handle.
func (e *Engine) Load(ctx context.Context, id string, key *cryptoprim.SymKey, readSeed, writeSeed string, version int) (*File, error) {
	if f, ok := e.lookup(id); ok {
		return f, nil
	}

	_, actualVersion, err := e.Vlobs.Read(ctx, id, readSeed, version)
	if err != nil {
		return nil, fmt.Errorf("load file %s: %w", id, err)
	}

	dirty := false
	for _, dirtyID := range e.Vlobs.List() {
		if dirtyID == id {
			dirty = true
			actualVersion--
			break
		}
	}

	f := &File{
		engine:    e,
		ID:        id,
		Key:       key,
		ReadSeed:  readSeed,
		WriteSeed: writeSeed,
		Version:   actualVersion,
		Dirty:     dirty,
		Created:   time.Now(),
		Updated:   time.Now(),
	}
	e.register(f)
	return f, nil
}

// currentVersion is the version Stat reports and Restore validates
// against: the staged version while dirty, else the last committed one.
// Reads always request the latest version (0), staged or durable.
func (f *File) currentVersion() int {
	if f.Dirty {
		return f.Version + 1
	}
	return f.Version
}

func (f *File) currentGroups(ctx context.Context) ([]types.BlockGroup, error) {
	ciphertext, _, err := f.engine.Vlobs.Read(ctx, f.ID, f.ReadSeed, 0) // 0 = latest, staged or durable
	if err != nil {
		return nil, err
	}
	cleartext, err := f.Key.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt vlob %s: %w", f.ID, err)
	}
	return types.DecodeBlob(cleartext)
}

func (f *File) currentBlockIDs(ctx context.Context) ([]string, error) {
	groups, err := f.currentGroups(ctx)
	if err != nil {
		return nil, err
	}
	match, err := findMatchingBlocks(ctx, f.engine.Blocks, groups, math.MaxInt64, 0)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, g := range append(append([]types.BlockGroup{}, match.PreExcludedBlocks...), match.IncludedBlocks...) {
		for _, b := range g.Blocks {
			ids = append(ids, b.Block)
		}
	}
	return ids, nil
}

// Write queues a write; no I/O happens until Flush.
func (f *File) Write(data []byte, offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	f.modQueue = append(f.modQueue, types.PendingOp{Kind: types.OpWrite, Data: stored, Offset: offset})
}

// Truncate queues a truncate; no I/O happens until Flush.
func (f *File) Truncate(length int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modQueue = append(f.modQueue, types.PendingOp{Kind: types.OpTruncate, Length: length})
}

// Read flushes pending modifications, then returns up to size bytes
// starting at offset.
func (f *File) Read(ctx context.Context, size, offset int) ([]byte, error) {
	if err := f.Flush(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	groups, err := f.currentGroups(ctx)
	if err != nil {
		return nil, err
	}
	match, err := findMatchingBlocks(ctx, f.engine.Blocks, groups, size, offset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(match.PreIncludedData)+len(match.IncludedData)+len(match.PostIncludedData))
	data = append(data, match.PreIncludedData...)
	data = append(data, match.IncludedData...)
	data = append(data, match.PostIncludedData...)
	if len(data) > size {
		data = data[:size]
	}
	return data, nil
}

// Stat decrypts the current vlob, sums declared block sizes, and adjusts
// for still-pending modifications.
func (f *File) Stat(ctx context.Context) (types.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	groups, err := f.currentGroups(ctx)
	if err != nil {
		return types.Stat{}, err
	}
	size := 0
	for _, g := range groups {
		for _, b := range g.Blocks {
			size += b.Size
		}
	}
	for _, op := range f.modQueue {
		switch op.Kind {
		case types.OpWrite:
			if end := op.Offset + len(op.Data); end > size {
				size = end
			}
		case types.OpTruncate:
			if op.Length < size {
				size = op.Length
			}
		}
	}

	return types.Stat{
		ID:      f.ID,
		Type:    "file",
		Size:    size,
		Version: f.currentVersion(),
		Created: f.Created,
		Updated: f.Updated,
	}, nil
}

// Flush drains the modification queue into buffered VlobUpdate calls and
// garbage-collects blocks orphaned by the new content. Only orphaned
// blocks that were never committed are deleted; committed blocks stay,
// since earlier versions (and so Restore) still reference them.
func (f *File) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushLocked(ctx)
}

func (f *File) flushLocked(ctx context.Context) error {
	if len(f.modQueue) == 0 {
		return nil
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FlushDuration)

	builder := NewContentBuilder()
	shortestTruncate := -1
	for _, op := range f.modQueue {
		switch op.Kind {
		case types.OpWrite:
			builder.Write(op.Data, op.Offset)
		case types.OpTruncate:
			builder.Truncate(op.Length)
			if shortestTruncate == -1 || op.Length < shortestTruncate {
				shortestTruncate = op.Length
			}
		}
	}
	f.modQueue = nil

	previousBlockIDs, err := f.currentBlockIDs(ctx)
	if err != nil {
		return err
	}

	if shortestTruncate != -1 {
		groups, err := f.currentGroups(ctx)
		if err != nil {
			return err
		}
		match, err := findMatchingBlocks(ctx, f.engine.Blocks, groups, shortestTruncate, 0)
		if err != nil {
			return err
		}
		newGroup, err := newGroup(ctx, f.engine.Blocks, match.PostIncludedData)
		if err != nil {
			return err
		}
		payload := append(append([]types.BlockGroup{}, match.IncludedBlocks...), newGroup)
		if err := f.updateVlob(ctx, payload); err != nil {
			return err
		}
	}

	for _, region := range builder.Regions() {
		groups, err := f.currentGroups(ctx)
		if err != nil {
			return err
		}
		match, err := findMatchingBlocks(ctx, f.engine.Blocks, groups, len(region.data), region.offset)
		if err != nil {
			return err
		}
		content := make([]byte, 0, len(match.PreExcludedData)+len(region.data)+len(match.PostExcludedData))
		content = append(content, match.PreExcludedData...)
		content = append(content, region.data...)
		content = append(content, match.PostExcludedData...)

		middle, err := newGroup(ctx, f.engine.Blocks, content)
		if err != nil {
			return err
		}
		payload := append(append([]types.BlockGroup{}, match.PreExcludedBlocks...), middle)
		payload = append(payload, match.PostExcludedBlocks...)
		if err := f.updateVlob(ctx, payload); err != nil {
			return err
		}
	}

	currentBlockIDs, err := f.currentBlockIDs(ctx)
	if err != nil {
		return err
	}
	current := make(map[string]struct{}, len(currentBlockIDs))
	for _, id := range currentBlockIDs {
		current[id] = struct{}{}
	}
	uncommitted := make(map[string]struct{})
	for _, id := range f.engine.Blocks.List() {
		uncommitted[id] = struct{}{}
	}
	for _, id := range previousBlockIDs {
		if _, ok := current[id]; ok {
			continue
		}
		if _, ok := uncommitted[id]; !ok {
			continue
		}
		if err := f.engine.Blocks.Delete(ctx, id); err != nil && !errors.Is(err, perrors.ErrBlockNotFound) {
			return err
		}
		metrics.BlocksGCed.Inc()
	}

	f.Dirty = true
	return nil
}

func (f *File) updateVlob(ctx context.Context, payload []types.BlockGroup) error {
	blob, err := types.EncodeBlob(payload)
	if err != nil {
		return fmt.Errorf("encode vlob %s: %w", f.ID, err)
	}
	ciphertext, err := f.Key.Encrypt(blob)
	if err != nil {
		return fmt.Errorf("encrypt vlob %s: %w", f.ID, err)
	}
	return f.engine.Vlobs.Update(ctx, f.ID, f.WriteSeed, f.Version+1, ciphertext)
}

// Commit flushes, synchronizes every current block, then synchronizes
// the vlob itself, bumping Version and clearing Dirty on success.
func (f *File) Commit(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)

	if err := f.flushLocked(ctx); err != nil {
		return err
	}

	blockIDs, err := f.currentBlockIDs(ctx)
	if err != nil {
		return err
	}

	result, err := f.engine.sync.Commit(ctx, blockIDs, f.ID)
	if err != nil {
		return fmt.Errorf("commit %s: %w", f.ID, err)
	}
	if result.Descriptor.ID == "" {
		return nil // nothing was buffered
	}
	if result.Rotated {
		oldID := f.ID
		f.ID = result.Descriptor.ID
		f.engine.rekey(oldID, f)
	}
	// The backend mints its own trust seeds the first time a vlob is
	// promoted (memory.go's CreateVlob, wsbackend's VlobService:create);
	// the File must adopt them even when the id itself didn't change, or
	// every subsequent read/update will fail trust_seed_error against the
	// backend-held seeds.
	f.ReadSeed = result.Descriptor.ReadSeed
	f.WriteSeed = result.Descriptor.WriteSeed
	f.Version++
	f.Dirty = false
	return nil
}

// Discard clears pending modifications and deletes every current block
// and the vlob itself, tolerating BlockNotFound/VlobNotFound as already
// synchronized. Returns true iff anything was actually removed.
func (f *File) Discard(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := false
	f.modQueue = nil

	blockIDs, err := f.currentBlockIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range blockIDs {
		if err := f.engine.Blocks.Delete(ctx, id); err != nil {
			if !errors.Is(err, perrors.ErrBlockNotFound) {
				return false, err
			}
			continue
		}
		removed = true
	}

	if err := f.engine.Vlobs.Delete(ctx, f.ID, f.WriteSeed); err != nil {
		if !errors.Is(err, perrors.ErrVlobNotFound) {
			return false, err
		}
	} else {
		removed = true
	}

	f.Dirty = false
	f.engine.unregister(f.ID)
	return removed, nil
}

// Restore flushes, reads the requested historical version (default
// current-1), and issues a VlobUpdate carrying its blob forward as a new
// version; blocks are left untouched.
func (f *File) Restore(ctx context.Context, version int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.flushLocked(ctx); err != nil {
		return err
	}

	current := f.currentVersion()
	if version == 0 {
		version = current - 1
	}
	if version < 1 || version >= current {
		return fmt.Errorf("restore %s to version %d: %w", f.ID, version, perrors.ErrBadVersion)
	}

	historicalBlob, _, err := f.engine.Vlobs.Read(ctx, f.ID, f.ReadSeed, version)
	if err != nil {
		return fmt.Errorf("restore %s: %w", f.ID, err)
	}
	if err := f.engine.Vlobs.Update(ctx, f.ID, f.WriteSeed, f.Version+1, historicalBlob); err != nil {
		return fmt.Errorf("restore %s: %w", f.ID, err)
	}
	f.Dirty = true
	return nil
}

// Reencrypt flushes, re-encrypts the current vlob under a fresh
// symmetric key, and re-registers the handle under the brand-new vlob
// the backend mints. The old vlob is left intact.
func (f *File) Reencrypt(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.flushLocked(ctx); err != nil {
		return err
	}

	groups, err := f.currentGroups(ctx)
	if err != nil {
		return err
	}
	newKey, err := cryptoprim.GenerateSymKey()
	if err != nil {
		return fmt.Errorf("reencrypt %s: %w", f.ID, err)
	}
	blob, err := types.EncodeBlob(groups)
	if err != nil {
		return fmt.Errorf("reencrypt %s: %w", f.ID, err)
	}
	ciphertext, err := newKey.Encrypt(blob)
	if err != nil {
		return fmt.Errorf("reencrypt %s: %w", f.ID, err)
	}

	desc, err := f.engine.Vlobs.Create(ctx, ciphertext)
	if err != nil {
		return fmt.Errorf("reencrypt %s: %w", f.ID, err)
	}

	oldID := f.ID
	f.ID = desc.ID
	f.ReadSeed = desc.ReadSeed
	f.WriteSeed = desc.WriteSeed
	f.Key = newKey
	f.engine.rekey(oldID, f)
	f.Dirty = true
	return nil
}

