package volume

import "github.com/dargueta/fatimg/image"

// This file collects the exported entry points the defragmenter (and other
// out-of-package callers) drive the volume through, each acquiring the lock
// once and delegating to the already-locked unexported implementation.

// RootEntry returns the synthetic "/" pseudo-entry path resolution and the
// defragmenter's tree both start from.
func RootEntry() DirectoryEntry {
	return rootEntry()
}

// EntriesOf returns the decoded directory listing belonging to entry.
func (v *Volume) EntriesOf(entry DirectoryEntry) ([]DirectoryEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.entriesOf(entry)
}

// WriteParentEntries persists entries as the contents of parent's directory
// cluster (cluster 0 for the root), keeping the in-memory root list in sync.
func (v *Volume) WriteParentEntries(parent DirectoryEntry, entries []DirectoryEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writeParentEntries(parent, entries)
}

// ReadClusterBytes reads the full payload of cluster n.
func (v *Volume) ReadClusterBytes(n uint32) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.readCluster(n)
}

// WriteClusterBytes writes data (zero-padded to cluster_size) at cluster n.
func (v *Volume) WriteClusterBytes(n uint32, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writeCluster(n, data)
}

// SetFATSlot updates the canonical in-memory FAT slot. Mirrors are only
// regenerated when Save is next called, so the defragmenter's FAT updates
// stay in memory until its final save (its cluster payload swaps and
// directory cluster rewrites go to disk as they happen).
func (v *Volume) SetFATSlot(slot uint32, value uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setFatSlot(slot, value)
}

// ParentOf returns the unique slot p with FAT[p] == n. If no such slot
// exists but n itself is in use, it returns DirectoryContent (n is only
// reachable through a directory entry's first_cluster, not a FAT
// predecessor). If n is itself unused, it returns Unused.
func (v *Volume) ParentOf(n uint32) uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.parentOf(n)
}

func (v *Volume) parentOf(n uint32) uint32 {
	if v.fat[n] == image.Unused {
		return image.Unused
	}
	for slot, value := range v.fat {
		if value == n {
			return uint32(slot)
		}
	}
	return image.DirectoryContent
}

// SwapClusterPayloads physically exchanges the on-disk byte contents of
// clusters lhs and rhs.
func (v *Volume) SwapClusterPayloads(lhs, rhs uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	lhsData, err := v.readCluster(lhs)
	if err != nil {
		return err
	}
	rhsData, err := v.readCluster(rhs)
	if err != nil {
		return err
	}

	if err := v.writeCluster(lhs, rhsData); err != nil {
		return err
	}
	return v.writeCluster(rhs, lhsData)
}
