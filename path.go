package unixfs

import "strings"

// resolvePath walks a slash-separated path from root (if it starts with
// "/") or from `startID` otherwise, component by component, skipping empty
// components, ".", and "..": path resolution never follows ".." out of
// the current directory, so it is silently skipped rather than walked.
//
// "", "/", and "." map respectively to the current directory, the root, and
// the current directory.
func (fs *FileSystem) resolvePath(path string, startID uint32) (uint32, error) {
	if path == "" || path == "." {
		return startID, nil
	}

	current := startID
	if strings.HasPrefix(path, "/") {
		current = RootInodeID
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." || component == ".." {
			continue
		}

		dir, err := fs.inodes.ReadInode(current)
		if err != nil {
			return 0, err
		}
		if !dir.IsDir() {
			return 0, ErrNotADirectory
		}

		childID, err := fs.lookupDirEntry(dir, component)
		if err != nil {
			return 0, ErrNotFound
		}
		current = childID
	}

	return current, nil
}

// isDotDot reports whether a raw path is exactly "..", the one case the
// façade's Cd refuses outright rather than silently ignoring.
func isDotDot(path string) bool {
	return path == ".."
}
