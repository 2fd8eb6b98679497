package unixfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newFormattedFS(t *testing.T) *FileSystem {
	t.Helper()
	device := newTestDevice(t)
	fs := NewFileSystem(device)
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Mount())
	return fs
}

func TestDirentEncodeDecodeRoundTrip(t *testing.T) {
	record := encodeDirent("hello.txt", 42)
	require.Len(t, record, DirentSize)

	name, id := decodeDirent(record)
	require.Equal(t, "hello.txt", name)
	require.Equal(t, uint32(42), id)
}

func TestDirentNameTruncatesAtMaxFilename(t *testing.T) {
	longName := "this-name-is-definitely-longer-than-28-chars"
	record := encodeDirent(longName, 1)
	name, _ := decodeDirent(record)
	require.LessOrEqual(t, len(name), MaxFilename-1)
	require.Equal(t, longName[:MaxFilename-1], name)
}

func TestAddAndLookupDirEntry(t *testing.T) {
	fs := newFormattedFS(t)
	root, err := fs.inodes.ReadInode(RootInodeID)
	require.NoError(t, err)

	require.NoError(t, fs.addDirEntry(&root, "a", 5, 100))
	id, err := fs.lookupDirEntry(root, "a")
	require.NoError(t, err)
	require.Equal(t, uint32(5), id)
}

func TestAddDirEntryRejectsDuplicates(t *testing.T) {
	fs := newFormattedFS(t)
	root, err := fs.inodes.ReadInode(RootInodeID)
	require.NoError(t, err)

	require.NoError(t, fs.addDirEntry(&root, "a", 5, 100))
	err = fs.addDirEntry(&root, "a", 6, 101)
	require.ErrorIs(t, err, ErrExists)
}

func TestRemoveDirEntryShrinksToZeroWhenEmpty(t *testing.T) {
	fs := newFormattedFS(t)
	root, err := fs.inodes.ReadInode(RootInodeID)
	require.NoError(t, err)

	require.NoError(t, fs.addDirEntry(&root, "a", 5, 100))
	require.NotZero(t, root.Size)

	require.NoError(t, fs.removeDirEntry(&root, "a", 200))
	require.Zero(t, root.Size)
	require.Zero(t, root.BlocksCount)
	for _, b := range root.Direct {
		require.Zero(t, b)
	}
}

func TestRemoveDirEntryMissingNameFails(t *testing.T) {
	fs := newFormattedFS(t)
	root, err := fs.inodes.ReadInode(RootInodeID)
	require.NoError(t, err)

	err = fs.removeDirEntry(&root, "nope", 1)
	require.ErrorIs(t, err, ErrNotFound)
}
