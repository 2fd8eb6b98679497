package unixfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusos/unixfs"
	"github.com/campusos/unixfs/testutil"
)

func TestFormatAndSmokeTest(t *testing.T) {
	fs := testutil.RootFileSystem(t)

	entries, err := fs.Ls("")
	require.NoError(t, err)
	require.Empty(t, entries)

	stat, err := fs.Mkdir("a")
	require.NoError(t, err)
	require.True(t, stat.IsDir())

	entries, err = fs.Ls("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a", entries[0].Name)
	require.Equal(t, uint16(0755), entries[0].Stat.Mode)
	require.Equal(t, uint32(0), entries[0].Stat.Owner)
	require.True(t, entries[0].Stat.IsDir())
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	_, err := fs.Mkdir("a")
	require.NoError(t, err)
	require.NoError(t, fs.Cd("a"))

	_, err = fs.CreateFile("f")
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile("f", []byte("hello\n")))

	data, err := fs.ReadFile("f")
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))

	stat, err := fs.Stat("f")
	require.NoError(t, err)
	require.EqualValues(t, 6, stat.Size)
	require.EqualValues(t, 1, stat.BlocksCount)
}

func TestPermissionDenial(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	_, err := fs.CreateFile("f")
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile("f", []byte("secret")))

	require.NoError(t, fs.Chmod("f", 0600))
	fs.Logout()
	require.NoError(t, fs.Login("user1", "123456"))

	_, err = fs.ReadFile("f")
	require.ErrorIs(t, err, unixfs.ErrPermissionDenied)

	fs.Logout()
	require.NoError(t, fs.Login("root", "root"))
	require.NoError(t, fs.Chmod("f", 0604))

	fs.Logout()
	require.NoError(t, fs.Login("user1", "123456"))
	data, err := fs.ReadFile("f")
	require.NoError(t, err)
	require.Equal(t, "secret", string(data))
}

func TestCapacityBoundary(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	_, err := fs.CreateFile("f")
	require.NoError(t, err)

	exact := make([]byte, unixfs.MaxFileSize)
	require.NoError(t, fs.WriteFile("f", exact))

	tooBig := make([]byte, unixfs.MaxFileSize+1)
	err = fs.WriteFile("f", tooBig)
	require.ErrorIs(t, err, unixfs.ErrFileTooLarge)

	data, err := fs.ReadFile("f")
	require.NoError(t, err)
	require.NotEqual(t, unixfs.MaxFileSize+1, len(data))
}

func TestCrossProcessBusy(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	_, err := fs.CreateFile("f")
	require.NoError(t, err)

	handle, err := fs.LockForWrite("f")
	require.NoError(t, err)

	err = fs.WriteFile("f", []byte("x"))
	require.ErrorIs(t, err, unixfs.ErrBusy)

	_, err = fs.ReadFile("f")
	require.ErrorIs(t, err, unixfs.ErrBusy)

	require.NoError(t, fs.UnlockForWrite(handle))
	require.NoError(t, fs.WriteFile("f", []byte("x")))
}

func TestDirectoryNonEmptyRefusal(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	_, err := fs.Mkdir("d")
	require.NoError(t, err)
	require.NoError(t, fs.Cd("d"))
	_, err = fs.CreateFile("x")
	require.NoError(t, err)
	require.NoError(t, fs.Cd("/"))

	err = fs.Rmdir("d")
	require.ErrorIs(t, err, unixfs.ErrDirectoryNotEmpty)

	require.NoError(t, fs.Cd("d"))
	require.NoError(t, fs.Unlink("x"))
	require.NoError(t, fs.Cd("/"))
	require.NoError(t, fs.Rmdir("d"))
}

func TestCreateThenUnlinkIsIdempotentOnName(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	before, err := fs.Ls("")
	require.NoError(t, err)

	_, err = fs.CreateFile("f")
	require.NoError(t, err)
	require.NoError(t, fs.Unlink("f"))

	after, err := fs.Ls("")
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))

	_, err = fs.Stat("f")
	require.ErrorIs(t, err, unixfs.ErrNotFound)
}

func TestMountAfterFormatYieldsSingleRoot(t *testing.T) {
	fs := testutil.FreshFileSystem(t)
	require.NoError(t, fs.Login("root", "root"))

	stat, err := fs.Stat("/")
	require.NoError(t, err)
	require.EqualValues(t, unixfs.RootInodeID, stat.InodeID)
	require.True(t, stat.IsDir())

	entries, err := fs.Ls("/")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFormatIsIdempotent(t *testing.T) {
	device := testutil.NewMemDevice(t)
	fs := unixfs.NewFileSystem(device)
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Mount())
	require.NoError(t, fs.Login("root", "root"))

	entries, err := fs.Ls("/")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCdRefusesDotDot(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	err := fs.Cd("..")
	require.ErrorIs(t, err, unixfs.ErrInvalidArgument)
}

func TestMountFailsOnBadMagic(t *testing.T) {
	device := testutil.NewMemDevice(t)
	fs := unixfs.NewFileSystem(device)
	err := fs.Mount()
	require.ErrorIs(t, err, unixfs.ErrInvalidFileSystem)
}

func TestOperationsRequireLogin(t *testing.T) {
	fs := testutil.FreshFileSystem(t)
	_, err := fs.Ls("/")
	require.ErrorIs(t, err, unixfs.ErrNoSession)
}

func TestAddUserRequiresRoot(t *testing.T) {
	fs := testutil.RootFileSystem(t)
	require.NoError(t, fs.Login("user1", "123456"))

	_, err := fs.AddUser("user3", "pw", false)
	require.ErrorIs(t, err, unixfs.ErrPermissionDenied)

	require.NoError(t, fs.Login("root", "root"))
	user, err := fs.AddUser("user3", "pw", false)
	require.NoError(t, err)
	require.Equal(t, "user3", user.Username)

	fs.Logout()
	require.NoError(t, fs.Login("user3", "pw"))
}
