package unixfs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockTableExcludesWriterFromReaders(t *testing.T) {
	table := newLockTable()
	table.AcquireWrite(1)

	acquired := make(chan struct{})
	go func() {
		table.AcquireRead(1)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired while a writer held the entry")
	case <-time.After(50 * time.Millisecond):
	}

	table.ReleaseWrite(1)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("reader never unblocked after writer released")
	}
	table.ReleaseRead(1)
}

func TestLockTableAllowsConcurrentReaders(t *testing.T) {
	table := newLockTable()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.AcquireRead(1)
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			table.ReleaseRead(1)
		}()
	}
	wg.Wait()
	require.Greater(t, maxActive, int32(1), "readers never overlapped")
}

func TestBeginWriteRejectsAlreadyWriting(t *testing.T) {
	fs := newFormattedFS(t)

	_, err := fs.beginWrite(RootInodeID)
	require.NoError(t, err)

	_, err = fs.beginWrite(RootInodeID)
	require.ErrorIs(t, err, ErrBusy)
}

func TestEndWriteRestoresAvailable(t *testing.T) {
	fs := newFormattedFS(t)

	locked, err := fs.beginWrite(RootInodeID)
	require.NoError(t, err)
	require.NoError(t, fs.endWrite(locked))

	root, err := fs.inodes.ReadInode(RootInodeID)
	require.NoError(t, err)
	require.Equal(t, StateAvailable, root.State)
}
