package volume

import (
	"strings"

	"github.com/dargueta/fatimg/errors"
)

// Resolve resolves path against the root directory, following §4.2.4
// exactly, including its "no-slash resolves to current directory" quirk
// that the mutation operations depend on to locate a parent.
func (v *Volume) Resolve(path string) (DirectoryEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resolve(path)
}

func (v *Volume) resolve(path string) (DirectoryEntry, error) {
	return v.findFileDescriptor(rootEntry(), v.rootDir, path)
}

// findFileDescriptor is the recursive-descent path resolver. parent is the
// directory entry whose cluster produced entries; path is whatever of the
// original path remains to be consumed at this level.
//
// Step 1: if path contains "/", drop everything up to and including the
// first "/" to form rest; otherwise rest = path.
// Step 2: target is the segment of rest before the next "/", or all of it.
// Step 3: scan entries for a name match; return it if it's a file,
// otherwise recurse into its cluster with rest.
// Step 4: no match: fail NotFound if path had a "/" and rest is non-empty,
// otherwise return parent unchanged.
func (v *Volume) findFileDescriptor(parent DirectoryEntry, entries []DirectoryEntry, path string) (DirectoryEntry, error) {
	hadSlash := strings.Contains(path, "/")

	var rest string
	if hadSlash {
		rest = path[strings.IndexByte(path, '/')+1:]
	} else {
		rest = path
	}

	var target string
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		target = rest[:idx]
	} else {
		target = rest
	}

	for _, entry := range entries {
		if entry.Name != target {
			continue
		}
		if !entry.IsDirectory() {
			return entry, nil
		}

		childEntries, err := v.entriesOf(entry)
		if err != nil {
			return DirectoryEntry{}, err
		}
		return v.findFileDescriptor(entry, childEntries, rest)
	}

	if hadSlash && rest != "" {
		return DirectoryEntry{}, errors.ErrNotFound
	}
	return parent, nil
}

// entriesOf returns the decoded directory listing for a directory entry:
// the in-memory root list for the synthetic root, or the decoded contents
// of its single content cluster otherwise.
func (v *Volume) entriesOf(entry DirectoryEntry) ([]DirectoryEntry, error) {
	if entry.FirstCluster == 0 {
		return v.rootDir, nil
	}

	data, err := v.readCluster(entry.FirstCluster)
	if err != nil {
		return nil, err
	}
	return v.loadDirectory(data)
}

// splitPath separates a path into its parent directory path and leaf name,
// e.g. "/a/b.txt" -> ("/a", "b.txt"), "/a.txt" -> ("/", "a.txt").
func splitPath(path string) (parentPath string, leaf string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", path
	}
	if idx == 0 {
		return "/", path[1:]
	}
	return path[:idx], path[idx+1:]
}
