package unixfs

// Fundamental geometry of the file system. These mirror the constants a
// faithful rewrite of a teaching Unix file system hard-codes into its
// superblock: a fixed disk size, a fixed block size, and fixed-capacity
// inode and directory-entry records.
const (
	DiskSize  = 10 * 1024 * 1024 // 10 MiB backing file.
	BlockSize = 4096             // Bytes per block.
	MaxBlocks = DiskSize / BlockSize

	InodeSize      = 128
	MaxInodes      = 1024
	InodesPerBlock = BlockSize / InodeSize

	MaxFilename  = 28
	DirectBlocks = 10
	MaxFileSize  = DirectBlocks * BlockSize

	// Magic identifies a formatted volume. Mount fails if the superblock's
	// magic doesn't match.
	Magic = uint32(0x12345678)
)

// Block layout on the device:
//
//	block 0        : Superblock
//	block 1        : Inode bitmap  (1 bit per inode, LSB-first within each byte)
//	block 2        : Data-block bitmap (1 bit per block index, LSB-first)
//	block 3 .. B-1 : Inode table, B = 3 + ceil(MaxInodes*InodeSize/BlockSize)
//	block B ..     : Data region (addressed by absolute block index)
const (
	SuperblockNumber = 0
	InodeBitmapBlock = 1
	DataBitmapBlock  = 2
	InodeTableStart  = 3
)

// InodeTableBlocks is the number of blocks occupied by the inode table.
const InodeTableBlocks = (MaxInodes*InodeSize + BlockSize - 1) / BlockSize

// DataBlockStart is the first absolute block index available for file
// content; everything before it is metadata.
const DataBlockStart = InodeTableStart + InodeTableBlocks

// RootInodeID is the inode number of the file system root, always allocated
// first by Format.
const RootInodeID = 0

// DirentSize is the size in bytes of one packed directory-entry record: a
// NUL-padded filename plus a little-endian inode id.
const DirentSize = MaxFilename + 4
