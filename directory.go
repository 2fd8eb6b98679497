package unixfs

import (
	"bytes"
	"encoding/binary"
)

// rawDirent is the 28-byte NUL-padded filename plus a 32-bit inode id.
type rawDirent struct {
	Name    [MaxFilename]byte
	InodeID uint32
}

func encodeDirent(name string, inodeID uint32) []byte {
	if len(name) > MaxFilename-1 {
		name = name[:MaxFilename-1]
	}

	var raw rawDirent
	copy(raw.Name[:], name)
	raw.InodeID = inodeID

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, &raw)
	return buf.Bytes()
}

func decodeDirent(record []byte) (string, uint32) {
	var raw rawDirent
	binary.Read(bytes.NewReader(record), binary.LittleEndian, &raw)

	end := bytes.IndexByte(raw.Name[:], 0)
	if end < 0 {
		end = len(raw.Name)
	}
	return string(raw.Name[:end]), raw.InodeID
}

// DecodeDirentForFsck exposes decodeDirent to the fsck package, which needs
// to walk raw directory content without going through ListDir's inode
// lookups (it is itself checking whether those lookups would succeed).
func DecodeDirentForFsck(record []byte) (string, uint32) {
	return decodeDirent(record)
}

// listRawEntries decodes a directory inode's content into (name, inodeID)
// pairs.
func (fs *FileSystem) listRawEntries(dir Inode) ([]string, []uint32, error) {
	data, err := fs.ReadInodeData(dir)
	if err != nil {
		return nil, nil, err
	}

	count := len(data) / DirentSize
	names := make([]string, 0, count)
	ids := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		record := data[i*DirentSize : (i+1)*DirentSize]
		name, id := decodeDirent(record)
		names = append(names, name)
		ids = append(ids, id)
	}
	return names, ids, nil
}

// addDirEntry appends a new directory entry, rejecting exact-name
// duplicates, and rewrites the directory's content through WriteInodeData.
func (fs *FileSystem) addDirEntry(dir *Inode, name string, childID uint32, now uint32) error {
	if len(name) > MaxFilename-1 {
		name = name[:MaxFilename-1]
	}

	names, _, err := fs.listRawEntries(*dir)
	if err != nil {
		return err
	}
	for _, existing := range names {
		if existing == name {
			return ErrExists
		}
	}

	data, err := fs.ReadInodeData(*dir)
	if err != nil {
		return err
	}
	data = append(data, encodeDirent(name, childID)...)

	updated, err := fs.WriteInodeData(*dir, data, now)
	if err != nil {
		return err
	}
	*dir = updated
	return fs.inodes.WriteInode(*dir)
}

// removeDirEntry removes the entry named `name`. If removal empties the
// directory, it is shrunk to size 0 with its data blocks explicitly freed
// rather than going through the rewrite primitive.
func (fs *FileSystem) removeDirEntry(dir *Inode, name string, now uint32) error {
	names, ids, err := fs.listRawEntries(*dir)
	if err != nil {
		return err
	}

	index := -1
	for i, existing := range names {
		if existing == name {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrNotFound
	}

	names = append(names[:index], names[index+1:]...)
	ids = append(ids[:index], ids[index+1:]...)

	if len(names) == 0 {
		if err := fs.freeAllBlocks(dir); err != nil {
			return err
		}
		dir.ModifiedAt = now
		return fs.inodes.WriteInode(*dir)
	}

	data := make([]byte, 0, len(names)*DirentSize)
	for i, n := range names {
		data = append(data, encodeDirent(n, ids[i])...)
	}

	updated, err := fs.WriteInodeData(*dir, data, now)
	if err != nil {
		return err
	}
	*dir = updated
	return fs.inodes.WriteInode(*dir)
}

// lookupDirEntry returns the inode id stored under `name`, or ErrNotFound.
func (fs *FileSystem) lookupDirEntry(dir Inode, name string) (uint32, error) {
	names, ids, err := fs.listRawEntries(dir)
	if err != nil {
		return 0, err
	}
	for i, existing := range names {
		if existing == name {
			return ids[i], nil
		}
	}
	return 0, ErrNotFound
}

// ListDir returns the decoded entry sequence of a directory inode.
func (fs *FileSystem) ListDir(dir Inode) ([]DirEntry, error) {
	names, ids, err := fs.listRawEntries(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(names))
	for i, name := range names {
		child, err := fs.inodes.ReadInode(ids[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, DirEntry{Name: name, Stat: child.Stat()})
	}
	return entries, nil
}
