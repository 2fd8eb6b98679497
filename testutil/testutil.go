// Package testutil provides in-memory fixtures for exercising a
// unixfs.FileSystem without touching the real filesystem.
package testutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/campusos/unixfs"
)

// NewMemDevice returns a BlockDevice backed by a fixed-size in-memory
// buffer, zero-filled to unixfs.DiskSize.
func NewMemDevice(t *testing.T) *unixfs.BlockDevice {
	t.Helper()
	buf := make([]byte, unixfs.DiskSize)
	stream := bytesextra.NewReadWriteSeeker(buf)
	return unixfs.NewBlockDevice(stream)
}

// FreshFileSystem returns a FileSystem over an in-memory device that has
// been formatted and mounted, with no session logged in.
func FreshFileSystem(t *testing.T) *unixfs.FileSystem {
	t.Helper()
	fs := unixfs.NewFileSystem(NewMemDevice(t))
	require.NoError(t, fs.Format())
	require.NoError(t, fs.Mount())
	return fs
}

// RootFileSystem is FreshFileSystem with root already logged in, the
// starting point for most façade-level tests.
func RootFileSystem(t *testing.T) *unixfs.FileSystem {
	t.Helper()
	fs := FreshFileSystem(t)
	require.NoError(t, fs.Login("root", "root"))
	return fs
}

// RandomBytes returns n pseudo-random bytes seeded deterministically from
// seed, so tests are reproducible without depending on crypto/rand.
func RandomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}
