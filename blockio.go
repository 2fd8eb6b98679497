package unixfs

import (
	"github.com/noxer/bytewriter"
)

// ReadInodeData concatenates an inode's direct blocks, stopping at the
// first zero slot, and truncates the result to the inode's recorded file
// size.
func (fs *FileSystem) ReadInodeData(inode Inode) ([]byte, error) {
	n := inode.Size
	out := make([]byte, 0, n)

	for _, blockNum := range inode.Direct {
		if uint32(len(out)) >= n {
			break
		}
		if blockNum == 0 {
			break
		}

		buf := make([]byte, BlockSize)
		if err := fs.device.ReadBlock(blockNum, buf); err != nil {
			return nil, err
		}

		remaining := n - uint32(len(out))
		if remaining > BlockSize {
			remaining = BlockSize
		}
		out = append(out, buf[:remaining]...)
	}

	return out, nil
}

// WriteInodeData is a full rewrite of an inode's content: it frees every
// currently allocated direct block, allocates exactly as many fresh blocks
// as `data` requires, writes each one (zero-padding the tail past the
// payload boundary), and updates size/blocks-count/modify-time on the
// returned Inode value. The caller is responsible for persisting the
// returned inode.
//
// If an allocation fails partway through, the blocks already freed from the
// old content are not restored — this is the acknowledged fragility
// documented in the design notes, not a bug to silently paper over.
func (fs *FileSystem) WriteInodeData(inode Inode, data []byte, now uint32) (Inode, error) {
	if len(data) > MaxFileSize {
		return inode, ErrFileTooLarge
	}

	blocksNeeded := (len(data) + BlockSize - 1) / BlockSize
	if blocksNeeded > DirectBlocks {
		return inode, ErrFileTooLarge
	}

	// Free all currently allocated direct blocks before allocating new ones.
	for i, blockNum := range inode.Direct {
		if blockNum != 0 {
			if err := fs.dataAlloc.Free(blockNum); err != nil {
				return inode, err
			}
			inode.Direct[i] = 0
		}
	}

	var newDirect [DirectBlocks]uint32
	for i := 0; i < blocksNeeded; i++ {
		blockNum, err := fs.dataAlloc.Alloc()
		if err != nil {
			// Abort with previously freed blocks lost; no rollback attempted.
			if de, ok := err.(DriverError); ok {
				return inode, de.WithMessage("write aborted partway; the file's previous data blocks were already freed and are not restored")
			}
			return inode, err
		}
		newDirect[i] = blockNum

		buf := make([]byte, BlockSize)
		start := i * BlockSize
		end := start + BlockSize
		if end > len(data) {
			end = len(data)
		}

		w := bytewriter.New(buf)
		if _, err := w.Write(data[start:end]); err != nil {
			return inode, ErrIOFailed.Wrap(err)
		}
		// Bytes past the payload boundary in the final block stay zero,
		// since buf was freshly zeroed and the writer only advances past
		// the payload it was given.

		if err := fs.device.WriteBlock(blockNum, buf); err != nil {
			return inode, err
		}
	}

	inode.Direct = newDirect
	inode.Size = uint32(len(data))
	inode.BlocksCount = uint32(blocksNeeded)
	inode.ModifiedAt = now
	return inode, nil
}

// freeAllBlocks frees every nonzero direct block referenced by inode,
// writing zero to the inode's pointer slots. Used by Unlink and by
// removeDirEntry when a directory becomes empty.
func (fs *FileSystem) freeAllBlocks(inode *Inode) error {
	for i, blockNum := range inode.Direct {
		if blockNum != 0 {
			if err := fs.dataAlloc.Free(blockNum); err != nil {
				return err
			}
			inode.Direct[i] = 0
		}
	}
	inode.Size = 0
	inode.BlocksCount = 0
	return nil
}
