package file

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/perrors"
	"github.com/parsecfs/parsec/pkg/types"
)

// chunkSize is the boundary writes are sliced at before becoming blocks.
const chunkSize = 4096

// newGroup slices content into chunkSize blocks encrypted under a fresh
// symmetric key, stores each block, and returns the resulting group.
// Empty content still produces one zero-length block.
func newGroup(ctx context.Context, blocks blockstore.Store, content []byte) (types.BlockGroup, error) {
	key, err := cryptoprim.GenerateSymKey()
	if err != nil {
		return types.BlockGroup{}, fmt.Errorf("generate block group key: %w", err)
	}

	chunks := chunkContent(content)
	metas := make([]types.BlockMeta, 0, len(chunks))
	for _, chunk := range chunks {
		ciphertext, err := key.Encrypt(chunk)
		if err != nil {
			return types.BlockGroup{}, fmt.Errorf("encrypt block: %w", err)
		}
		id, err := blocks.Create(ctx, ciphertext)
		if err != nil {
			return types.BlockGroup{}, fmt.Errorf("create block: %w", err)
		}
		metas = append(metas, types.BlockMeta{
			Block:  id,
			Digest: cryptoprim.Digest(chunk),
			Size:   len(chunk),
		})
	}

	return types.BlockGroup{
		Key:    base64.StdEncoding.EncodeToString(key.Raw()),
		Blocks: metas,
	}, nil
}

func chunkContent(content []byte) [][]byte {
	if len(content) == 0 {
		return [][]byte{{}}
	}
	chunks := make([][]byte, 0, (len(content)+chunkSize-1)/chunkSize)
	for offset := 0; offset < len(content); offset += chunkSize {
		end := offset + chunkSize
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, content[offset:end])
	}
	return chunks
}

// groupKey decodes the base64 symmetric key carried by a BlockGroup.
func groupKey(g types.BlockGroup) (*cryptoprim.SymKey, error) {
	raw, err := base64.StdEncoding.DecodeString(g.Key)
	if err != nil {
		return nil, fmt.Errorf("decode block group key: %w", err)
	}
	return cryptoprim.LoadSymKey(raw)
}

// decryptBlock fetches block meta's ciphertext, decrypts it under key,
// and verifies its declared digest and size.
func decryptBlock(ctx context.Context, blocks blockstore.Store, key *cryptoprim.SymKey, meta types.BlockMeta) ([]byte, error) {
	ciphertext, err := blocks.Read(ctx, meta.Block)
	if err != nil {
		return nil, fmt.Errorf("read block %s: %w", meta.Block, err)
	}
	cleartext, err := key.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt block %s: %w", meta.Block, err)
	}
	if len(cleartext) != meta.Size || cryptoprim.Digest(cleartext) != meta.Digest {
		return nil, fmt.Errorf("block %s: %w", meta.Block, perrors.ErrIntegrityFailure)
	}
	return cleartext, nil
}

// appendBlock appends meta to groups, coalescing with the last group when
// it shares the same key.
func appendBlock(groups []types.BlockGroup, key string, meta types.BlockMeta) []types.BlockGroup {
	if n := len(groups); n > 0 && groups[n-1].Key == key {
		groups[n-1].Blocks = append(groups[n-1].Blocks, meta)
		return groups
	}
	return append(groups, types.BlockGroup{Key: key, Blocks: []types.BlockMeta{meta}})
}
