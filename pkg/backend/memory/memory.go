package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/parsecfs/parsec/pkg/perrors"
)

type vlobEntry struct {
	readSeed  string
	writeSeed string
	versions  [][]byte // index 0 unused, version N at index N
}

// Backend is an in-memory implementation of backend.BlockBackend and
// backend.VlobBackend.
type Backend struct {
	mu     sync.Mutex
	blocks map[string][]byte
	vlobs  map[string]*vlobEntry
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		blocks: make(map[string][]byte),
		vlobs:  make(map[string]*vlobEntry),
	}
}

func (b *Backend) CreateBlock(ctx context.Context, id string, content []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(content))
	copy(stored, content)
	b.blocks[id] = stored
	return nil
}

func (b *Backend) ReadBlock(ctx context.Context, id string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.blocks[id]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, perrors.ErrBlockNotFound)
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (b *Backend) DeleteBlock(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blocks[id]; !ok {
		return fmt.Errorf("block %s: %w", id, perrors.ErrBlockNotFound)
	}
	delete(b.blocks, id)
	return nil
}

func (b *Backend) CreateVlob(ctx context.Context, id string, blob []byte) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.vlobs[id]; exists {
		return "", "", fmt.Errorf("vlob %s: already exists", id)
	}

	readSeed, err := randomSeed()
	if err != nil {
		return "", "", err
	}
	writeSeed, err := randomSeed()
	if err != nil {
		return "", "", err
	}

	stored := make([]byte, len(blob))
	copy(stored, blob)
	b.vlobs[id] = &vlobEntry{
		readSeed:  readSeed,
		writeSeed: writeSeed,
		versions:  [][]byte{nil, stored},
	}
	return readSeed, writeSeed, nil
}

func (b *Backend) ReadVlob(ctx context.Context, id, readSeed string, version int) ([]byte, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.vlobs[id]
	if !ok {
		return nil, 0, fmt.Errorf("vlob %s: %w", id, perrors.ErrVlobNotFound)
	}
	if entry.readSeed != readSeed {
		return nil, 0, fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
	}
	if version == 0 {
		version = len(entry.versions) - 1
	}
	if version <= 0 || version >= len(entry.versions) {
		return nil, 0, fmt.Errorf("vlob %s version %d: %w", id, version, perrors.ErrBadVersion)
	}
	blob := entry.versions[version]
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, version, nil
}

func (b *Backend) UpdateVlob(ctx context.Context, id, writeSeed string, version int, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.vlobs[id]
	if !ok {
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrVlobNotFound)
	}
	if entry.writeSeed != writeSeed {
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
	}
	latest := len(entry.versions) - 1
	if version != latest+1 {
		return fmt.Errorf("vlob %s: expected version %d, got %d: %w", id, latest+1, version, perrors.ErrVersionConflict)
	}
	stored := make([]byte, len(blob))
	copy(stored, blob)
	entry.versions = append(entry.versions, stored)
	return nil
}

func (b *Backend) DeleteVlob(ctx context.Context, id, writeSeed string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.vlobs[id]
	if !ok {
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrVlobNotFound)
	}
	if entry.writeSeed != writeSeed {
		return fmt.Errorf("vlob %s: %w", id, perrors.ErrTrustSeed)
	}
	delete(b.vlobs, id)
	return nil
}

func randomSeed() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate trust seed: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
