// Package fsck implements a read-only consistency checker over a mounted
// unixfs.FileSystem: the five invariants of the component design's testable
// properties, run independently and aggregated into a single error, the way
// a real fsck reports every problem found in one pass instead of stopping at
// the first.
package fsck

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/campusos/unixfs"
)

// Report is the result of one consistency pass.
type Report struct {
	InodesScanned uint32
	Err           error // *multierror.Error, nil if every check passed
}

// OK reports whether the pass found no violations.
func (r Report) OK() bool {
	return r.Err == nil
}

// Check runs every invariant against fs and returns an aggregated Report.
// It does not mutate fs.
func Check(fs *unixfs.FileSystem) Report {
	var result *multierror.Error

	seenBlocks := make(map[uint32]uint32) // data block -> owning inode id
	liveInodes := uint32(0)

	for id := uint32(0); id < fs.MaxInodeID(); id++ {
		inode, err := fs.InodeByID(id)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("inode %d: unreadable: %w", id, err))
			continue
		}
		if !inode.Allocated {
			if fs.InodeAllocated(id) {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: bitmap marks it allocated but inode record is free", id))
			}
			continue
		}
		liveInodes++

		if !fs.InodeAllocated(id) {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: allocated record but bitmap marks it free", id))
		}

		checkBlockAccounting(inode, &result)
		checkBlockOwnership(fs, inode, seenBlocks, &result)
		if inode.IsDir() {
			checkDirectoryEntries(fs, inode, &result)
		}
		if inode.State != unixfs.StateAvailable {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: writer state is %v outside a write critical section", id, inode.State))
		}
	}

	sb := fs.Superblock()
	expectedFree := sb.TotalInodes - liveInodes
	if sb.FreeInodes != expectedFree {
		result = multierror.Append(result, fmt.Errorf(
			"superblock free_inodes=%d, expected %d (total %d - live %d)",
			sb.FreeInodes, expectedFree, sb.TotalInodes, liveInodes))
	}

	var err error
	if result != nil {
		err = result.ErrorOrNil()
	}
	return Report{InodesScanned: liveInodes, Err: err}
}

// checkBlockAccounting verifies invariant 3: blocks_count matches the
// nonzero prefix of direct_blocks implied by file_size.
func checkBlockAccounting(inode unixfs.Inode, result **multierror.Error) {
	expected := (inode.Size + unixfs.BlockSize - 1) / unixfs.BlockSize
	if inode.Size == 0 {
		expected = 0
	}
	if inode.BlocksCount != expected {
		*result = multierror.Append(*result, fmt.Errorf(
			"inode %d: blocks_count=%d, expected ceil(size/block_size)=%d",
			inode.ID, inode.BlocksCount, expected))
	}

	for i, blockNum := range inode.Direct {
		shouldBeSet := uint32(i) < inode.BlocksCount
		if shouldBeSet && blockNum == 0 {
			*result = multierror.Append(*result, fmt.Errorf(
				"inode %d: direct slot %d should be in use but is zero", inode.ID, i))
		}
		if !shouldBeSet && blockNum != 0 {
			*result = multierror.Append(*result, fmt.Errorf(
				"inode %d: direct slot %d should be zero but holds block %d", inode.ID, i, blockNum))
		}
	}
}

// checkBlockOwnership verifies invariant 2: every referenced block is
// marked allocated, lies past the data region boundary, and is claimed by
// exactly one inode.
func checkBlockOwnership(fs *unixfs.FileSystem, inode unixfs.Inode, seen map[uint32]uint32, result **multierror.Error) {
	for _, blockNum := range inode.Direct {
		if blockNum == 0 {
			continue
		}
		if blockNum < unixfs.DataBlockStart {
			*result = multierror.Append(*result, fmt.Errorf(
				"inode %d: direct block %d precedes the data region", inode.ID, blockNum))
		}
		if !fs.DataBlockAllocated(blockNum) {
			*result = multierror.Append(*result, fmt.Errorf(
				"inode %d: direct block %d is not marked allocated", inode.ID, blockNum))
		}
		if owner, ok := seen[blockNum]; ok {
			*result = multierror.Append(*result, fmt.Errorf(
				"data block %d is claimed by both inode %d and inode %d", blockNum, owner, inode.ID))
		} else {
			seen[blockNum] = inode.ID
		}
	}
}

// checkDirectoryEntries verifies invariant 4: a directory's content length
// is a whole number of entries, each pointing at an allocated inode.
func checkDirectoryEntries(fs *unixfs.FileSystem, inode unixfs.Inode, result **multierror.Error) {
	if inode.Size%unixfs.DirentSize != 0 {
		*result = multierror.Append(*result, fmt.Errorf(
			"directory inode %d: size %d is not a multiple of entry size %d",
			inode.ID, inode.Size, unixfs.DirentSize))
		return
	}

	data, err := fs.ReadInodeData(inode)
	if err != nil {
		*result = multierror.Append(*result, fmt.Errorf(
			"directory inode %d: content unreadable: %w", inode.ID, err))
		return
	}

	count := len(data) / unixfs.DirentSize
	for i := 0; i < count; i++ {
		_, childID := unixfs.DecodeDirentForFsck(data[i*unixfs.DirentSize : (i+1)*unixfs.DirentSize])
		child, err := fs.InodeByID(childID)
		if err != nil || !child.Allocated {
			*result = multierror.Append(*result, fmt.Errorf(
				"directory inode %d: entry %d points at non-allocated inode %d", inode.ID, i, childID))
		}
	}
}
