// Package unixfs implements the core of a teaching-grade, single-node,
// Unix-style file system hosted inside a fixed-size backing file that
// simulates a block device.
//
// The package exposes a POSIX-flavored hierarchy of regular files and
// directories with per-user ownership and nine-bit permission checks. All
// state is persisted in the backing file across process restarts, and
// concurrent access is coordinated both within a process (an in-process
// readers/writers table) and across processes sharing the same backing file
// (a disk-resident advisory write lock).
//
// The interactive shell, command parsing, and session management beyond a
// bare identity are left to callers; this package only defines the
// primitives they compose.
package unixfs
