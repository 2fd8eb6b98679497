package unixfs

import (
	"bytes"
	"encoding/binary"
)

// WriterState is the disk-resident advisory write lock encoded in every
// inode record.
type WriterState uint8

const (
	StateAvailable WriterState = iota
	StateWriting
)

// Inode is the in-memory, decoded form of a 128-byte on-disk inode record:
// indexed metadata, a block pointer list, and the advisory writer flag.
// encode/decode never assumes the in-memory layout matches the disk layout.
type Inode struct {
	ID           uint32
	Allocated    bool
	Type         FileType
	Mode         uint16
	Owner        uint32
	Size         uint32
	BlocksCount  uint32
	Direct       [DirectBlocks]uint32
	Indirect     uint32 // reserved; always 0 per the non-goal on indirect blocks
	CreatedAt    uint32
	ModifiedAt   uint32
	State        WriterState
}

func (inode *Inode) IsDir() bool {
	return inode.Type == TypeDirectory
}

// Stat converts an Inode to the façade-facing snapshot type.
func (inode *Inode) Stat() FileStat {
	return FileStat{
		InodeID:     inode.ID,
		Type:        inode.Type,
		Mode:        inode.Mode,
		Owner:       inode.Owner,
		Size:        inode.Size,
		BlocksCount: inode.BlocksCount,
		CreatedAt:   int64(inode.CreatedAt),
		ModifiedAt:  int64(inode.ModifiedAt),
	}
}

// rawInode is the fixed 128-byte wire format. Unused tail bytes are zero
// padding; there is no in-memory struct whose memory layout this is assumed
// to match.
type rawInode struct {
	ID          uint32
	Flags       uint8 // bit 0: allocated; bit 1: type (0=regular, 1=directory)
	State       uint8
	_           uint16
	Mode        uint16
	_           uint16
	Owner       uint32
	Size        uint32
	BlocksCount uint32
	Direct      [DirectBlocks]uint32
	Indirect    uint32
	CreatedAt   uint32
	ModifiedAt  uint32
	// Remaining bytes up to InodeSize are implicit zero padding handled by
	// the caller; InodeSize - binary.Size(rawInode{}) must stay >= 0.
}

const (
	flagAllocated = 1 << 0
	flagDirectory = 1 << 1
)

func encodeInode(inode Inode) []byte {
	flags := uint8(0)
	if inode.Allocated {
		flags |= flagAllocated
	}
	if inode.Type == TypeDirectory {
		flags |= flagDirectory
	}

	raw := rawInode{
		ID:          inode.ID,
		Flags:       flags,
		State:       uint8(inode.State),
		Mode:        inode.Mode,
		Owner:       inode.Owner,
		Size:        inode.Size,
		BlocksCount: inode.BlocksCount,
		Direct:      inode.Direct,
		Indirect:    inode.Indirect,
		CreatedAt:   inode.CreatedAt,
		ModifiedAt:  inode.ModifiedAt,
	}

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, &raw)

	record := make([]byte, InodeSize)
	copy(record, buf.Bytes())
	return record
}

func decodeInode(record []byte) (Inode, error) {
	var raw rawInode
	if err := binary.Read(bytes.NewReader(record), binary.LittleEndian, &raw); err != nil {
		return Inode{}, ErrIOFailed.Wrap(err)
	}

	inodeType := TypeRegular
	if raw.Flags&flagDirectory != 0 {
		inodeType = TypeDirectory
	}

	return Inode{
		ID:          raw.ID,
		Allocated:   raw.Flags&flagAllocated != 0,
		Type:        inodeType,
		Mode:        raw.Mode,
		Owner:       raw.Owner,
		Size:        raw.Size,
		BlocksCount: raw.BlocksCount,
		Direct:      raw.Direct,
		Indirect:    raw.Indirect,
		CreatedAt:   raw.CreatedAt,
		ModifiedAt:  raw.ModifiedAt,
		State:       WriterState(raw.State),
	}, nil
}

func init() {
	if binary.Size(rawInode{}) > InodeSize {
		panic("rawInode encoding exceeds InodeSize")
	}
}
