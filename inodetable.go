package unixfs

// InodeTable reads and writes fixed-size inode records by id at computed
// offsets in the inode region, addressing each record as a block number
// plus a byte offset within it.
type InodeTable struct {
	device *BlockDevice
}

func NewInodeTable(device *BlockDevice) *InodeTable {
	return &InodeTable{device: device}
}

func inodeLocation(id uint32) (blockNum uint32, offset uint32) {
	blockNum = InodeTableStart + (id*InodeSize)/BlockSize
	offset = (id * InodeSize) % BlockSize
	return
}

// ReadInode loads inode `id`. It rejects ids outside [0, MaxInodes).
func (t *InodeTable) ReadInode(id uint32) (Inode, error) {
	if id >= MaxInodes {
		return Inode{}, ErrInvalidArgument.WithMessage("inode id out of range")
	}

	blockNum, offset := inodeLocation(id)
	buf := make([]byte, BlockSize)
	if err := t.device.ReadBlock(blockNum, buf); err != nil {
		return Inode{}, err
	}

	return decodeInode(buf[offset : offset+InodeSize])
}

// WriteInode persists inode `in` at its id's slot. The containing block is
// read, modified in place, and rewritten whole so neighboring inode records
// in the same block are preserved.
func (t *InodeTable) WriteInode(in Inode) error {
	if in.ID >= MaxInodes {
		return ErrInvalidArgument.WithMessage("inode id out of range")
	}

	blockNum, offset := inodeLocation(in.ID)
	buf := make([]byte, BlockSize)
	if err := t.device.ReadBlock(blockNum, buf); err != nil {
		return err
	}

	copy(buf[offset:offset+InodeSize], encodeInode(in))
	return t.device.WriteBlock(blockNum, buf)
}
