package unixfs

import "sync"

// lockEntry is a per-inode readers/writers coordination record: its own
// mutex, a condition signal, a reader count, and a writer-present flag.
type lockEntry struct {
	mu             sync.Mutex
	cond           *sync.Cond
	readerCount    int
	writerPresent  bool
}

func newLockEntry() *lockEntry {
	e := &lockEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// lockTable is the process-global mapping inode_id -> entry backing the
// in-process reader/writer coordination layer. Entries are created lazily
// on first access and persist for the process lifetime; there is no GC.
type lockTable struct {
	mu      sync.Mutex
	entries map[uint32]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[uint32]*lockEntry)}
}

func (t *lockTable) entryFor(id uint32) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = newLockEntry()
		t.entries[id] = e
	}
	return e
}

// AcquireRead blocks until no writer holds the entry, then registers a
// reader.
func (t *lockTable) AcquireRead(id uint32) {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.writerPresent {
		e.cond.Wait()
	}
	e.readerCount++
}

// ReleaseRead unregisters a reader, waking any waiters once the last reader
// leaves.
func (t *lockTable) ReleaseRead(id uint32) {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.readerCount--
	if e.readerCount == 0 {
		e.cond.Broadcast()
	}
}

// AcquireWrite blocks until there are no readers and no other writer, then
// claims the entry for writing.
func (t *lockTable) AcquireWrite(id uint32) {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.readerCount > 0 || e.writerPresent {
		e.cond.Wait()
	}
	e.writerPresent = true
}

// ReleaseWrite clears the writer-present flag and wakes all waiters.
// Scheduling is not fair: a steady reader stream can starve a writer.
func (t *lockTable) ReleaseWrite(id uint32) {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.writerPresent = false
	e.cond.Broadcast()
}

// beginWrite performs the disk-resident advisory lock transition
// AVAILABLE -> WRITING. It fails with ErrBusy if another process (or this
// one) already has the inode marked WRITING. This check-then-write is not
// atomic against other processes sharing the backing file; it is advisory
// only.
func (fs *FileSystem) beginWrite(id uint32) (Inode, error) {
	inode, err := fs.inodes.ReadInode(id)
	if err != nil {
		return Inode{}, err
	}
	if inode.State == StateWriting {
		return Inode{}, ErrBusy
	}

	inode.State = StateWriting
	if err := fs.inodes.WriteInode(inode); err != nil {
		return Inode{}, err
	}
	return inode, nil
}

// endWrite performs the disk-resident advisory lock transition
// WRITING -> AVAILABLE.
func (fs *FileSystem) endWrite(inode Inode) error {
	inode.State = StateAvailable
	return fs.inodes.WriteInode(inode)
}
