package unixfs

import (
	"bytes"
	"encoding/binary"
)

// Superblock is the block-0 header identifying the volume and locating
// every other region, serialized as exactly BlockSize bytes (zero-padded).
type Superblock struct {
	Magic       uint32
	DiskSize    uint32
	BlockSize   uint32
	TotalBlocks uint32
	TotalInodes uint32
	FreeBlocks  uint32
	FreeInodes  uint32

	InodeBitmapBlock uint32
	DataBitmapBlock  uint32
	InodeTableStart  uint32
	DataBlockStart   uint32
}

// rawSuperblock is the fixed-width on-disk encoding. Field order and width
// are explicit; the in-memory Superblock layout is never assumed to match
// the disk representation.
type rawSuperblock struct {
	Magic            uint32
	DiskSize         uint32
	BlockSize        uint32
	TotalBlocks      uint32
	TotalInodes      uint32
	FreeBlocks       uint32
	FreeInodes       uint32
	InodeBitmapBlock uint32
	DataBitmapBlock  uint32
	InodeTableStart  uint32
	DataBlockStart   uint32
}

func defaultSuperblock() Superblock {
	return Superblock{
		Magic:            Magic,
		DiskSize:         DiskSize,
		BlockSize:        BlockSize,
		TotalBlocks:      MaxBlocks,
		TotalInodes:      MaxInodes,
		FreeBlocks:       MaxBlocks - 10, // decorative; not reconciled against the bitmap
		FreeInodes:       MaxInodes,
		InodeBitmapBlock: InodeBitmapBlock,
		DataBitmapBlock:  DataBitmapBlock,
		InodeTableStart:  InodeTableStart,
		DataBlockStart:   DataBlockStart,
	}
}

func encodeSuperblock(sb Superblock) []byte {
	raw := rawSuperblock{
		Magic:            sb.Magic,
		DiskSize:         sb.DiskSize,
		BlockSize:        sb.BlockSize,
		TotalBlocks:      sb.TotalBlocks,
		TotalInodes:      sb.TotalInodes,
		FreeBlocks:       sb.FreeBlocks,
		FreeInodes:       sb.FreeInodes,
		InodeBitmapBlock: sb.InodeBitmapBlock,
		DataBitmapBlock:  sb.DataBitmapBlock,
		InodeTableStart:  sb.InodeTableStart,
		DataBlockStart:   sb.DataBlockStart,
	}

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, &raw)

	block := make([]byte, BlockSize)
	copy(block, buf.Bytes())
	return block
}

func decodeSuperblock(block []byte) (Superblock, error) {
	var raw rawSuperblock
	if err := binary.Read(bytes.NewReader(block), binary.LittleEndian, &raw); err != nil {
		return Superblock{}, ErrIOFailed.Wrap(err)
	}

	return Superblock{
		Magic:            raw.Magic,
		DiskSize:         raw.DiskSize,
		BlockSize:        raw.BlockSize,
		TotalBlocks:      raw.TotalBlocks,
		TotalInodes:      raw.TotalInodes,
		FreeBlocks:       raw.FreeBlocks,
		FreeInodes:       raw.FreeInodes,
		InodeBitmapBlock: raw.InodeBitmapBlock,
		DataBitmapBlock:  raw.DataBitmapBlock,
		InodeTableStart:  raw.InodeTableStart,
		DataBlockStart:   raw.DataBlockStart,
	}, nil
}
