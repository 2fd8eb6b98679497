package unixfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) *BlockDevice {
	t.Helper()
	path := t.TempDir() + "/disk.img"
	device, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { device.Close() })
	return device
}

func TestAllocatorAllocFreeRoundTrip(t *testing.T) {
	device := newTestDevice(t)
	var free uint32 = 10
	alloc := NewAllocator(device, InodeBitmapBlock, 10, 0, &free)

	first, err := alloc.Alloc()
	require.NoError(t, err)
	require.Equal(t, uint32(0), first)
	require.Equal(t, uint32(9), free)
	require.True(t, alloc.Get(0))

	second, err := alloc.Alloc()
	require.NoError(t, err)
	require.Equal(t, uint32(1), second)

	require.NoError(t, alloc.Free(first))
	require.Equal(t, uint32(9), free)
	require.False(t, alloc.Get(0))
}

func TestAllocatorFreeIsIdempotent(t *testing.T) {
	device := newTestDevice(t)
	var free uint32 = 4
	alloc := NewAllocator(device, InodeBitmapBlock, 4, 0, &free)

	require.NoError(t, alloc.Free(2))
	require.Equal(t, uint32(4), free, "freeing an already-free slot must not increment the counter")
}

func TestAllocatorExhaustion(t *testing.T) {
	device := newTestDevice(t)
	var free uint32 = 2
	alloc := NewAllocator(device, InodeBitmapBlock, 2, 0, &free)

	_, err := alloc.Alloc()
	require.NoError(t, err)
	_, err = alloc.Alloc()
	require.NoError(t, err)

	_, err = alloc.Alloc()
	require.ErrorIs(t, err, ErrOutOfSpace)
}

func TestAllocatorRespectsStartOffset(t *testing.T) {
	device := newTestDevice(t)
	var free uint32 = 100
	alloc := NewAllocator(device, DataBitmapBlock, 100, DataBlockStart, &free)

	id, err := alloc.Alloc()
	require.NoError(t, err)
	require.Equal(t, uint32(DataBlockStart), id)
}

func TestLoadAllocatorRoundTrip(t *testing.T) {
	device := newTestDevice(t)
	var free uint32 = 10
	alloc := NewAllocator(device, InodeBitmapBlock, 10, 0, &free)
	_, err := alloc.Alloc()
	require.NoError(t, err)

	reloaded, err := LoadAllocator(device, InodeBitmapBlock, 10, 0, &free)
	require.NoError(t, err)
	require.True(t, reloaded.Get(0))
	require.False(t, reloaded.Get(1))
}
