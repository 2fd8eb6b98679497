package unixfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInodeEncodeDecodeRoundTrip(t *testing.T) {
	in := Inode{
		ID:          7,
		Allocated:   true,
		Type:        TypeDirectory,
		Mode:        0755,
		Owner:       3,
		Size:        4096,
		BlocksCount: 1,
		CreatedAt:   1000,
		ModifiedAt:  2000,
		State:       StateWriting,
	}
	in.Direct[0] = DataBlockStart

	record := encodeInode(in)
	require.Len(t, record, InodeSize)

	decoded, err := decodeInode(record)
	require.NoError(t, err)
	require.Equal(t, in, decoded)
}

func TestInodeEncodeEmptyIsAllZero(t *testing.T) {
	record := encodeInode(Inode{})
	require.Len(t, record, InodeSize)
	for _, b := range record {
		require.Zero(t, b)
	}
}

func TestInodeIsDirAndStat(t *testing.T) {
	in := Inode{ID: 1, Type: TypeDirectory, Mode: 0755, Owner: 0, Size: 64}
	require.True(t, in.IsDir())

	stat := in.Stat()
	require.Equal(t, uint32(1), stat.InodeID)
	require.True(t, stat.IsDir())
	require.Equal(t, uint16(0755), stat.Mode)
}
