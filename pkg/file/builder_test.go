package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBuilderOverlappingWritesCoalesce(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("AAAA"), 0)
	b.Write([]byte("BB"), 1)

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].offset)
	assert.Equal(t, []byte("ABBA"), regions[0].data)
}

func TestContentBuilderTruncateThenWrite(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("123456789"), 0)
	b.Truncate(4)
	b.Write([]byte("ZZ"), 2)

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, []byte("12ZZ"), regions[0].data)
}

func TestContentBuilderLeftEdgeMerge(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("BBBB"), 4)
	b.Write([]byte("AAAA"), 0)

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].offset)
	assert.Equal(t, []byte("AAAABBBB"), regions[0].data)
}

func TestContentBuilderRightEdgeExtend(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("AAAA"), 0)
	b.Write([]byte("BBBB"), 4)

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].offset)
	assert.Equal(t, []byte("AAAABBBB"), regions[0].data)
}

func TestContentBuilderNonOverlappingRegionsStayDistinct(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("AA"), 0)
	b.Write([]byte("BB"), 10)

	regions := b.Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, 0, regions[0].offset)
	assert.Equal(t, 10, regions[1].offset)
}

func TestContentBuilderWriteSpanningTwoRegionsMergesBoth(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("AA"), 0)
	b.Write([]byte("BB"), 10)
	b.Write([]byte("000000000000"), 0) // spans both prior regions

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].offset)
	assert.Equal(t, []byte("000000000000"), regions[0].data)
}

func TestContentBuilderTruncateDiscardsRegionsPastLength(t *testing.T) {
	b := NewContentBuilder()
	b.Write([]byte("AA"), 0)
	b.Write([]byte("BB"), 10)
	b.Truncate(2)

	regions := b.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, []byte("AA"), regions[0].data)
}
