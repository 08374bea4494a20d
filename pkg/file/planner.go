package file

import (
	"context"

	"github.com/parsecfs/parsec/pkg/blockstore"
	"github.com/parsecfs/parsec/pkg/types"
)

// MatchResult is the classification find_matching_blocks produces for a
// target byte range [offset, offset+size) against a list of BlockGroups
// in file order.
type MatchResult struct {
	PreExcludedBlocks  []types.BlockGroup
	PreExcludedData    []byte
	PreIncludedData    []byte
	IncludedBlocks     []types.BlockGroup
	IncludedData       []byte
	PostIncludedData   []byte
	PostExcludedData   []byte
	PostExcludedBlocks []types.BlockGroup
}

// findMatchingBlocks walks groups in file order, classifying each block
// into one of five buckets relative to [offset, offset+size), decrypting
// and splitting blocks that straddle either edge of the range.
func findMatchingBlocks(ctx context.Context, blocks blockstore.Store, groups []types.BlockGroup, size, offset int) (MatchResult, error) {
	var result MatchResult
	end := offset + size
	cursor := 0

	for _, g := range groups {
		key, err := groupKey(g)
		if err != nil {
			return MatchResult{}, err
		}

		for _, meta := range g.Blocks {
			blockStart := cursor
			blockEnd := cursor + meta.Size
			cursor = blockEnd

			switch {
			case blockEnd <= offset:
				result.PreExcludedBlocks = appendBlock(result.PreExcludedBlocks, g.Key, meta)

			case blockStart < offset && blockEnd > offset:
				content, err := decryptBlock(ctx, blocks, key, meta)
				if err != nil {
					return MatchResult{}, err
				}
				splitAt := offset - blockStart
				result.PreExcludedData = append(result.PreExcludedData, content[:splitAt]...)
				if blockEnd <= end {
					result.PreIncludedData = append(result.PreIncludedData, content[splitAt:]...)
				} else {
					endAt := end - blockStart
					result.PreIncludedData = append(result.PreIncludedData, content[splitAt:endAt]...)
					result.PostExcludedData = append(result.PostExcludedData, content[endAt:]...)
				}

			case blockStart >= offset && blockEnd <= end:
				content, err := decryptBlock(ctx, blocks, key, meta)
				if err != nil {
					return MatchResult{}, err
				}
				result.IncludedBlocks = appendBlock(result.IncludedBlocks, g.Key, meta)
				result.IncludedData = append(result.IncludedData, content...)

			case blockStart < end && blockEnd > end:
				content, err := decryptBlock(ctx, blocks, key, meta)
				if err != nil {
					return MatchResult{}, err
				}
				splitAt := end - blockStart
				result.PostIncludedData = append(result.PostIncludedData, content[:splitAt]...)
				result.PostExcludedData = append(result.PostExcludedData, content[splitAt:]...)

			default:
				result.PostExcludedBlocks = appendBlock(result.PostExcludedBlocks, g.Key, meta)
			}
		}
	}

	return result, nil
}
