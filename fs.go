package unixfs

import (
	"fmt"
	posixpath "path"
	"strings"
	"time"
)

// FileSystem is the façade (C10) that composes the block device, allocator,
// inode table, directory service, path resolver, access control, and
// concurrency layers into the named operations a shell (or any other
// caller) drives. It holds exactly one session at a time.
type FileSystem struct {
	device     *BlockDevice
	inodes     *InodeTable
	inodeAlloc *Allocator
	dataAlloc  *Allocator
	superblock Superblock
	users      *UserTable
	locks      *lockTable

	mounted bool
	session *Session
	cwdID   uint32
	cwdPath string
}

// NewFileSystem wraps an already-open backing store. Call Format on a fresh
// store or Mount on a previously formatted one before using any other
// method.
func NewFileSystem(device *BlockDevice) *FileSystem {
	return &FileSystem{
		device: device,
		inodes: NewInodeTable(device),
		locks:  newLockTable(),
		users:  newUserTable(),
	}
}

func now() uint32 {
	return uint32(time.Now().Unix())
}

// Format zeroes the entire backing store, writes a default superblock,
// zeros both bitmaps (then allocates inode 0 for the root directory),
// writes the root inode, and re-seeds the user table.
func (fs *FileSystem) Format() error {
	zero := make([]byte, BlockSize)
	for i := uint32(0); i < MaxBlocks; i++ {
		if err := fs.device.WriteBlock(i, zero); err != nil {
			return err
		}
	}

	fs.superblock = defaultSuperblock()
	fs.inodeAlloc = NewAllocator(fs.device, InodeBitmapBlock, MaxInodes, 0, &fs.superblock.FreeInodes)
	fs.dataAlloc = NewAllocator(fs.device, DataBitmapBlock, MaxBlocks, DataBlockStart, &fs.superblock.FreeBlocks)

	rootID, err := fs.inodeAlloc.Alloc()
	if err != nil {
		return err
	}
	if rootID != RootInodeID {
		return ErrIOFailed.WithMessage("root inode did not land on id 0")
	}

	nowTS := now()
	root := Inode{
		ID:         RootInodeID,
		Allocated:  true,
		Type:       TypeDirectory,
		Mode:       DefaultDirMode,
		Owner:      0,
		CreatedAt:  nowTS,
		ModifiedAt: nowTS,
	}
	if err := fs.inodes.WriteInode(root); err != nil {
		return err
	}

	if err := fs.device.WriteBlock(SuperblockNumber, encodeSuperblock(fs.superblock)); err != nil {
		return err
	}

	fs.users = newUserTable()
	fs.mounted = false
	fs.session = nil
	fs.cwdID = RootInodeID
	fs.cwdPath = "/"
	return nil
}

// Mount loads the superblock, verifies its magic, loads both bitmaps, and
// resets the current directory to root. The user table is re-seeded
// unconditionally.
func (fs *FileSystem) Mount() error {
	buf := make([]byte, BlockSize)
	if err := fs.device.ReadBlock(SuperblockNumber, buf); err != nil {
		return err
	}

	sb, err := decodeSuperblock(buf)
	if err != nil {
		return err
	}
	if sb.Magic != Magic {
		return ErrInvalidFileSystem
	}
	fs.superblock = sb

	fs.inodeAlloc, err = LoadAllocator(fs.device, InodeBitmapBlock, MaxInodes, 0, &fs.superblock.FreeInodes)
	if err != nil {
		return err
	}
	fs.dataAlloc, err = LoadAllocator(fs.device, DataBitmapBlock, MaxBlocks, DataBlockStart, &fs.superblock.FreeBlocks)
	if err != nil {
		return err
	}

	fs.cwdID = RootInodeID
	fs.cwdPath = "/"
	fs.mounted = true
	fs.users = newUserTable()
	fs.session = nil
	return nil
}

// deallocateInode clears an inode's bitmap bit and overwrites its on-disk
// record with a zeroed (Allocated=false) inode, so the record and the
// bitmap never disagree about whether id is in use.
func (fs *FileSystem) deallocateInode(id uint32) error {
	if err := fs.inodeAlloc.Free(id); err != nil {
		return err
	}
	return fs.inodes.WriteInode(Inode{ID: id})
}

func (fs *FileSystem) requireMounted() error {
	if !fs.mounted {
		return ErrNotMounted
	}
	return nil
}

func (fs *FileSystem) requireSession() (*Session, error) {
	if err := fs.requireMounted(); err != nil {
		return nil, err
	}
	if fs.session == nil {
		return nil, ErrNoSession
	}
	return fs.session, nil
}

////////////////////////////////////////////////////////////////////////////
// Session management

// Login authenticates against the in-memory user table. It replaces any
// currently logged-in session, matching the reference design's single
// concurrent session.
func (fs *FileSystem) Login(username, password string) error {
	if err := fs.requireMounted(); err != nil {
		return err
	}

	session, ok := fs.users.Authenticate(username, password)
	if !ok {
		return ErrPermissionDenied.WithMessage("invalid username or password")
	}
	fs.session = &session
	return nil
}

func (fs *FileSystem) Logout() {
	fs.session = nil
}

func (fs *FileSystem) AddUser(username, password string, isRoot bool) (User, error) {
	if _, err := fs.requireSession(); err != nil {
		return User{}, err
	}
	if !fs.session.IsRoot {
		return User{}, ErrPermissionDenied
	}
	return fs.users.AddUser(username, password, isRoot), nil
}

////////////////////////////////////////////////////////////////////////////
// Path helpers

func (fs *FileSystem) normalizeAppend(path string) string {
	if strings.HasPrefix(path, "/") {
		return posixpath.Clean(path)
	}
	if fs.cwdPath == "/" {
		return "/" + path
	}
	return fs.cwdPath + "/" + path
}

////////////////////////////////////////////////////////////////////////////
// Façade operations

// CreateFile creates a regular file named `name` in the current directory
// with default mode 0644, owned by the session's uid.
func (fs *FileSystem) CreateFile(name string) (FileStat, error) {
	return fs.createObject(name, TypeRegular, DefaultFileMode)
}

// Mkdir creates a directory named `name` in the current directory with
// default mode 0755.
func (fs *FileSystem) Mkdir(name string) (FileStat, error) {
	return fs.createObject(name, TypeDirectory, DefaultDirMode)
}

func (fs *FileSystem) createObject(name string, fileType FileType, mode uint16) (FileStat, error) {
	session, err := fs.requireSession()
	if err != nil {
		return FileStat{}, err
	}

	cwd, err := fs.inodes.ReadInode(fs.cwdID)
	if err != nil {
		return FileStat{}, err
	}
	if !CheckPermission(session, cwd, ModeWrite) {
		return FileStat{}, ErrPermissionDenied
	}

	id, err := fs.inodeAlloc.Alloc()
	if err != nil {
		return FileStat{}, err
	}

	nowTS := now()
	child := Inode{
		ID:         id,
		Allocated:  true,
		Type:       fileType,
		Mode:       mode,
		Owner:      session.UID,
		CreatedAt:  nowTS,
		ModifiedAt: nowTS,
	}
	if err := fs.inodes.WriteInode(child); err != nil {
		fs.deallocateInode(id)
		return FileStat{}, err
	}

	if err := fs.addDirEntry(&cwd, name, id, nowTS); err != nil {
		fs.deallocateInode(id)
		return FileStat{}, err
	}

	return child.Stat(), nil
}

// resolveTarget resolves a name (bare or absolute) against the current
// working directory, returning the target's inode.
func (fs *FileSystem) resolveTarget(name string) (Inode, error) {
	id, err := fs.resolvePath(name, fs.cwdID)
	if err != nil {
		return Inode{}, err
	}
	return fs.inodes.ReadInode(id)
}

// Unlink removes a regular file or directory entry pointing at a file.
func (fs *FileSystem) Unlink(name string) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return err
	}
	if !CheckPermission(session, target, ModeWrite) {
		return ErrPermissionDenied
	}
	if target.State == StateWriting {
		return ErrBusy
	}

	if err := fs.freeAllBlocks(&target); err != nil {
		return err
	}

	cwd, err := fs.inodes.ReadInode(fs.cwdID)
	if err != nil {
		return err
	}
	if err := fs.removeDirEntry(&cwd, name, now()); err != nil {
		return err
	}

	return fs.deallocateInode(target.ID)
}

// Rmdir removes an empty directory entry.
func (fs *FileSystem) Rmdir(name string) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return err
	}
	if !CheckPermission(session, target, ModeWrite) {
		return ErrPermissionDenied
	}
	if !target.IsDir() {
		return ErrNotADirectory
	}

	entries, err := fs.ListDir(target)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return ErrDirectoryNotEmpty
	}

	cwd, err := fs.inodes.ReadInode(fs.cwdID)
	if err != nil {
		return err
	}
	if err := fs.removeDirEntry(&cwd, name, now()); err != nil {
		return err
	}

	return fs.deallocateInode(target.ID)
}

// WriteFile performs a full rewrite of `name`'s content. It takes the
// cross-process disk lock before the in-process write lock, and releases
// them in reverse order.
func (fs *FileSystem) WriteFile(name string, data []byte) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return err
	}
	if !CheckPermission(session, target, ModeWrite) {
		return ErrPermissionDenied
	}

	locked, err := fs.beginWrite(target.ID)
	if err != nil {
		return err
	}
	fs.locks.AcquireWrite(target.ID)
	defer func() {
		fs.locks.ReleaseWrite(target.ID)
		fs.endWrite(locked)
	}()

	updated, err := fs.WriteInodeData(locked, data, now())
	if err != nil {
		return err
	}
	locked = updated
	return fs.inodes.WriteInode(locked)
}

// ReadFile returns the full content of `name`.
func (fs *FileSystem) ReadFile(name string) ([]byte, error) {
	session, err := fs.requireSession()
	if err != nil {
		return nil, err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return nil, err
	}
	if !CheckPermission(session, target, ModeRead) {
		return nil, ErrPermissionDenied
	}
	if target.State == StateWriting {
		return nil, ErrBusy
	}

	fs.locks.AcquireRead(target.ID)
	defer fs.locks.ReleaseRead(target.ID)

	return fs.ReadInodeData(target)
}

// Cd changes the current directory. ".." is refused outright rather than
// silently no-opped: mid-path ".." components are skipped elsewhere, but
// Cd rejects an exact ".." target outright.
func (fs *FileSystem) Cd(path string) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}
	if isDotDot(path) {
		return ErrInvalidArgument.WithMessage("parent directory traversal is not supported")
	}

	targetID, err := fs.resolvePath(path, fs.cwdID)
	if err != nil {
		return err
	}
	target, err := fs.inodes.ReadInode(targetID)
	if err != nil {
		return err
	}
	if !target.IsDir() {
		return ErrNotADirectory
	}
	if !CheckPermission(session, target, ModeExecute) {
		return ErrPermissionDenied
	}

	fs.cwdID = targetID
	if path == "" || path == "." {
		// no-op on the path string
	} else if strings.HasPrefix(path, "/") {
		fs.cwdPath = posixpath.Clean(path)
	} else {
		fs.cwdPath = fs.normalizeAppend(path)
	}
	return nil
}

// Ls resolves `path` (or the current directory for "" or ".") and returns
// its entries.
func (fs *FileSystem) Ls(path string) ([]DirEntry, error) {
	session, err := fs.requireSession()
	if err != nil {
		return nil, err
	}

	targetID, err := fs.resolvePath(path, fs.cwdID)
	if err != nil {
		return nil, err
	}
	target, err := fs.inodes.ReadInode(targetID)
	if err != nil {
		return nil, err
	}
	if !CheckPermission(session, target, ModeRead) {
		return nil, ErrPermissionDenied
	}

	return fs.ListDir(target)
}

// Stat returns a snapshot of the inode `path` resolves to.
func (fs *FileSystem) Stat(path string) (FileStat, error) {
	if _, err := fs.requireSession(); err != nil {
		return FileStat{}, err
	}

	targetID, err := fs.resolvePath(path, fs.cwdID)
	if err != nil {
		return FileStat{}, err
	}
	target, err := fs.inodes.ReadInode(targetID)
	if err != nil {
		return FileStat{}, err
	}
	return target.Stat(), nil
}

// Pwd returns the maintained current-path string.
func (fs *FileSystem) Pwd() string {
	return fs.cwdPath
}

// Chmod replaces the low nine mode bits of `name`'s inode.
func (fs *FileSystem) Chmod(name string, mode uint16) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return err
	}
	if !session.IsRoot && target.Owner != session.UID {
		return ErrPermissionDenied
	}

	target.Mode = mode & 0o777
	target.ModifiedAt = now()
	return fs.inodes.WriteInode(target)
}

// Chown replaces the owner of `name`'s inode. Root only.
func (fs *FileSystem) Chown(name string, uid uint32) error {
	session, err := fs.requireSession()
	if err != nil {
		return err
	}
	if !session.IsRoot {
		return ErrPermissionDenied
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return err
	}

	target.Owner = uid
	target.ModifiedAt = now()
	return fs.inodes.WriteInode(target)
}

// LockForWrite acquires the two-layer write lock on `name` without
// performing a write, so a caller can issue several WriteFileLocked calls
// under one critical section.
func (fs *FileSystem) LockForWrite(name string) (uint32, error) {
	session, err := fs.requireSession()
	if err != nil {
		return 0, err
	}

	target, err := fs.resolveTarget(name)
	if err != nil {
		return 0, err
	}
	if !CheckPermission(session, target, ModeWrite) {
		return 0, ErrPermissionDenied
	}

	locked, err := fs.beginWrite(target.ID)
	if err != nil {
		return 0, err
	}
	fs.locks.AcquireWrite(locked.ID)
	return locked.ID, nil
}

// UnlockForWrite releases a lock taken by LockForWrite.
func (fs *FileSystem) UnlockForWrite(inodeID uint32) error {
	inode, err := fs.inodes.ReadInode(inodeID)
	if err != nil {
		return err
	}

	fs.locks.ReleaseWrite(inodeID)
	return fs.endWrite(inode)
}

// WriteFileLocked performs a rewrite on an inode already held by
// LockForWrite, without re-acquiring either lock.
func (fs *FileSystem) WriteFileLocked(inodeID uint32, data []byte) error {
	inode, err := fs.inodes.ReadInode(inodeID)
	if err != nil {
		return err
	}

	updated, err := fs.WriteInodeData(inode, data, now())
	if err != nil {
		return err
	}
	return fs.inodes.WriteInode(updated)
}

// FSStat summarizes allocator state for diagnostics.
type FSStat struct {
	TotalBlocks uint32
	FreeBlocks  uint32
	TotalInodes uint32
	FreeInodes  uint32
}

func (fs *FileSystem) FSStat() FSStat {
	return FSStat{
		TotalBlocks: fs.superblock.TotalBlocks,
		FreeBlocks:  fs.superblock.FreeBlocks,
		TotalInodes: fs.superblock.TotalInodes,
		FreeInodes:  fs.superblock.FreeInodes,
	}
}

func (fs *FileSystem) String() string {
	return fmt.Sprintf("FileSystem{mounted=%v, cwd=%s}", fs.mounted, fs.cwdPath)
}

// Superblock returns the current in-memory superblock snapshot, for
// diagnostic tools such as fsck.
func (fs *FileSystem) Superblock() Superblock {
	return fs.superblock
}

// InodeByID reads a raw inode by id regardless of current directory,
// exposed for fsck and cmd/unixfsctl.
func (fs *FileSystem) InodeByID(id uint32) (Inode, error) {
	return fs.inodes.ReadInode(id)
}

// InodeAllocated reports whether the inode bitmap has bit id set.
func (fs *FileSystem) InodeAllocated(id uint32) bool {
	return fs.inodeAlloc.Get(id)
}

// DataBlockAllocated reports whether the data bitmap has block n set.
func (fs *FileSystem) DataBlockAllocated(n uint32) bool {
	return fs.dataAlloc.Get(n)
}

// MaxInodeID is the exclusive upper bound of valid inode ids, for scan loops
// outside this package.
func (fs *FileSystem) MaxInodeID() uint32 {
	return MaxInodes
}
