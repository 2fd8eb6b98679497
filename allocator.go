package unixfs

import (
	bitmap "github.com/boljen/go-bitmap"
)

// Allocator is a linear-scan bitmap allocator generalized to serve both the
// inode bitmap and the data-block bitmap. Every mutation is immediately
// written through to its dedicated block via flush.
type Allocator struct {
	bits       bitmap.Bitmap
	total      uint32
	start      uint32 // first usable index (0 for inodes, DataBlockStart for blocks)
	blockNum   uint32 // device block this bitmap lives in
	device     *BlockDevice
	freeCount  *uint32 // points at the superblock counter this allocator maintains
}

// NewAllocator creates an allocator over `total` bits (indices [0, total)),
// treating indices below `start` as permanently unavailable, backed by the
// given device block.
func NewAllocator(device *BlockDevice, blockNum uint32, total, start uint32, freeCount *uint32) *Allocator {
	return &Allocator{
		bits:      bitmap.New(int(total)),
		total:     total,
		start:     start,
		blockNum:  blockNum,
		device:    device,
		freeCount: freeCount,
	}
}

// LoadAllocator reconstructs an allocator from its on-disk bitmap block.
func LoadAllocator(device *BlockDevice, blockNum uint32, total, start uint32, freeCount *uint32) (*Allocator, error) {
	buf := make([]byte, BlockSize)
	if err := device.ReadBlock(blockNum, buf); err != nil {
		return nil, err
	}

	byteLen := (total + 7) / 8
	a := &Allocator{
		bits:      bitmap.Bitmap(append([]byte(nil), buf[:byteLen]...)),
		total:     total,
		start:     start,
		blockNum:  blockNum,
		device:    device,
		freeCount: freeCount,
	}
	return a, nil
}

// flush writes the bitmap's backing bytes through to its dedicated block.
func (a *Allocator) flush() error {
	buf := make([]byte, BlockSize)
	copy(buf, a.bits.Data(false))
	return a.device.WriteBlock(a.blockNum, buf)
}

// Get reports whether index i is currently allocated.
func (a *Allocator) Get(i uint32) bool {
	return a.bits.Get(int(i))
}

// set marks index i allocated or free, writing the bitmap block through to
// disk before returning.
func (a *Allocator) set(i uint32, value bool) error {
	a.bits.Set(int(i), value)
	return a.flush()
}

// Alloc performs a linear scan from `start` for the first free slot, marks
// it allocated, writes the bitmap through, and returns its index. It
// returns ErrOutOfSpace if every slot is taken.
func (a *Allocator) Alloc() (uint32, error) {
	for i := a.start; i < a.total; i++ {
		if !a.bits.Get(int(i)) {
			if err := a.set(i, true); err != nil {
				return 0, err
			}
			if a.freeCount != nil && *a.freeCount > 0 {
				*a.freeCount--
			}
			return i, nil
		}
	}
	return 0, ErrOutOfSpace
}

// Free clears bit i. It is idempotent: freeing an already-free slot is a
// no-op.
func (a *Allocator) Free(i uint32) error {
	if i >= a.total || !a.bits.Get(int(i)) {
		return nil
	}
	if err := a.set(i, false); err != nil {
		return err
	}
	if a.freeCount != nil {
		*a.freeCount++
	}
	return nil
}

// Count returns the number of allocated bits in [start, total).
func (a *Allocator) Count() uint32 {
	count := uint32(0)
	for i := a.start; i < a.total; i++ {
		if a.bits.Get(int(i)) {
			count++
		}
	}
	return count
}
