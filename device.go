package unixfs

import (
	"fmt"
	"io"
	"os"
)

// BlockDevice is a fixed-size random-access backing store that exposes
// whole-block reads and writes over an io.ReadWriteSeeker. Every write is
// flushed before returning; there is no in-memory caching layer.
type BlockDevice struct {
	stream io.ReadWriteSeeker
	closer io.Closer
	size   int64
}

// OpenFile opens (creating if absent) a backing file at path, zero-filling
// it to DiskSize if it was just created.
func OpenFile(path string) (*BlockDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ErrIOFailed.Wrap(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ErrIOFailed.Wrap(err)
	}

	if info.Size() < DiskSize {
		if err := file.Truncate(DiskSize); err != nil {
			file.Close()
			return nil, ErrIOFailed.Wrap(err)
		}
	}

	return &BlockDevice{stream: file, closer: file, size: DiskSize}, nil
}

// NewBlockDevice wraps an already-open backing store (for example an
// in-memory buffer from testutil) that is already DiskSize bytes long.
func NewBlockDevice(stream io.ReadWriteSeeker) *BlockDevice {
	return &BlockDevice{stream: stream, size: DiskSize}
}

func (dev *BlockDevice) Close() error {
	if dev.closer != nil {
		return dev.closer.Close()
	}
	return nil
}

func (dev *BlockDevice) checkBounds(n uint32) error {
	if dev.stream == nil {
		return ErrIOFailed.WithMessage("block device is not open")
	}
	if uint64(n) >= uint64(MaxBlocks) {
		return ErrInvalidArgument.WithMessage(
			fmt.Sprintf("block %d not in [0, %d)", n, MaxBlocks))
	}
	return nil
}

// ReadBlock fills buf (which must be exactly BlockSize bytes) with the
// contents of block n.
func (dev *BlockDevice) ReadBlock(n uint32, buf []byte) error {
	if err := dev.checkBounds(n); err != nil {
		return err
	}
	if len(buf) != BlockSize {
		return ErrInvalidArgument.WithMessage("buffer must be exactly one block")
	}

	offset := int64(n) * BlockSize
	if _, err := dev.stream.Seek(offset, io.SeekStart); err != nil {
		return ErrIOFailed.Wrap(err)
	}
	if _, err := io.ReadFull(dev.stream, buf); err != nil {
		return ErrIOFailed.Wrap(err)
	}
	return nil
}

// WriteBlock writes buf (which must be exactly BlockSize bytes) to block n
// and flushes it to the OS before returning.
func (dev *BlockDevice) WriteBlock(n uint32, buf []byte) error {
	if err := dev.checkBounds(n); err != nil {
		return err
	}
	if len(buf) != BlockSize {
		return ErrInvalidArgument.WithMessage("buffer must be exactly one block")
	}

	offset := int64(n) * BlockSize
	if _, err := dev.stream.Seek(offset, io.SeekStart); err != nil {
		return ErrIOFailed.Wrap(err)
	}
	if _, err := dev.stream.Write(buf); err != nil {
		return ErrIOFailed.Wrap(err)
	}
	if flusher, ok := dev.stream.(interface{ Sync() error }); ok {
		if err := flusher.Sync(); err != nil {
			return ErrIOFailed.Wrap(err)
		}
	}
	return nil
}

// ZeroBlock writes a block of all-zero bytes to block n.
func (dev *BlockDevice) ZeroBlock(n uint32) error {
	return dev.WriteBlock(n, make([]byte, BlockSize))
}
