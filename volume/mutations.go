package volume

import (
	"io"
	"math"

	"github.com/dargueta/fatimg/errors"
	"github.com/dargueta/fatimg/image"
)

// HostFile is the narrow interface writeFile and InsertFile need against a
// host-side file being imported: sequential reads plus the ability to seek
// to the end to measure its length.
type HostFile interface {
	io.Reader
	io.Seeker
}

// writeParentEntries persists a directory's updated entry list, keeping the
// in-memory root list in sync when the directory in question is the root.
func (v *Volume) writeParentEntries(parent DirectoryEntry, entries []DirectoryEntry) error {
	if parent.FirstCluster == 0 {
		v.rootDir = entries
	}
	return v.saveClusterWithFiles(entries, parent.FirstCluster)
}

// CreateDirectory creates a new, empty subdirectory named name under
// parentPath.
func (v *Volume) CreateDirectory(parentPath, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.createDirectory(parentPath, name)
}

func (v *Volume) createDirectory(parentPath, name string) error {
	parent, err := v.resolve(parentPath)
	if err != nil {
		return err
	}
	if !parent.IsDirectory() {
		return errors.ErrNotADirectory
	}

	entries, err := v.entriesOf(parent)
	if err != nil {
		return err
	}
	if uint64(len(entries)) >= v.superblock.RootDirectoryMaxEntriesCount {
		return errors.ErrFull
	}
	for _, e := range entries {
		if e.Name == name {
			return errors.ErrExists
		}
	}

	cluster, err := v.allocateFreeCluster(image.FirstContentIndex)
	if err != nil {
		return err
	}

	entry := DirectoryEntry{
		Name:         name,
		Mode:         "rwxrwxrwx",
		Type:         EntryTypeDirectory,
		Size:         int64(v.superblock.ClusterSize),
		FirstCluster: cluster,
	}

	if err := v.saveClusterWithFiles(nil, cluster); err != nil {
		return err
	}

	entries = append(entries, entry)
	if err := v.writeParentEntries(parent, entries); err != nil {
		return err
	}

	v.setFatSlot(cluster, image.DirectoryContent)
	return v.writeFatSlotToDisk(cluster, image.DirectoryContent)
}

// DeleteDirectory removes an empty subdirectory at path.
func (v *Volume) DeleteDirectory(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleteDirectory(path)
}

func (v *Volume) deleteDirectory(path string) error {
	parentPath, leaf := splitPath(path)

	parent, err := v.resolve(parentPath)
	if err != nil {
		return err
	}
	target, err := v.resolve(path)
	if err != nil {
		return err
	}
	if !target.IsDirectory() {
		return errors.ErrNotADirectory
	}

	targetEntries, err := v.entriesOf(target)
	if err != nil {
		return err
	}
	if len(targetEntries) > 0 {
		return errors.ErrNotEmpty
	}

	parentEntries, err := v.entriesOf(parent)
	if err != nil {
		return err
	}

	newEntries := make([]DirectoryEntry, 0, len(parentEntries))
	for _, e := range parentEntries {
		if e.Name == leaf && e.FirstCluster == target.FirstCluster {
			continue
		}
		newEntries = append(newEntries, e)
	}

	if err := v.writeParentEntries(parent, newEntries); err != nil {
		return err
	}
	return v.clearChain(target.FirstCluster)
}

// InsertFile streams host into a freshly allocated chain and links it into
// the directory named by the parent component of imagePath.
func (v *Volume) InsertFile(host HostFile, imagePath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.insertFile(host, imagePath)
}

func (v *Volume) insertFile(host HostFile, imagePath string) error {
	size, err := host.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.ErrHostIO.WrapError(err)
	}

	parentPath, leaf := splitPath(imagePath)
	parent, err := v.resolve(parentPath)
	if err != nil {
		return err
	}

	entries, err := v.entriesOf(parent)
	if err != nil {
		return err
	}
	if uint64(len(entries)) >= v.superblock.RootDirectoryMaxEntriesCount {
		return errors.ErrFull
	}
	for _, e := range entries {
		if e.Name == leaf {
			return errors.ErrExists
		}
	}

	firstCluster, err := v.allocateFreeCluster(image.FirstContentIndex)
	if err != nil {
		return err
	}

	entry := DirectoryEntry{
		Name:         leaf,
		Mode:         "rwxrwxrwx",
		Type:         EntryTypeFile,
		Size:         size,
		FirstCluster: firstCluster,
	}

	if err := v.writeFile(host, &entry); err != nil {
		return err
	}

	entries = append(entries, entry)
	return v.writeParentEntries(parent, entries)
}

// DeleteFile removes the file at path and releases its chain.
func (v *Volume) DeleteFile(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleteFile(path)
}

func (v *Volume) deleteFile(path string) error {
	parentPath, leaf := splitPath(path)

	parent, err := v.resolve(parentPath)
	if err != nil {
		return err
	}
	target, err := v.resolve(path)
	if err != nil {
		return err
	}
	if target.IsDirectory() {
		return errors.ErrIsADirectory
	}

	parentEntries, err := v.entriesOf(parent)
	if err != nil {
		return err
	}

	newEntries := make([]DirectoryEntry, 0, len(parentEntries))
	for _, e := range parentEntries {
		if e.Name == leaf && e.FirstCluster == target.FirstCluster {
			continue
		}
		newEntries = append(newEntries, e)
	}

	if err := v.writeParentEntries(parent, newEntries); err != nil {
		return err
	}
	return v.clearChain(target.FirstCluster)
}

// writeFile streams host's bytes into entry's pre-allocated chain head,
// allocating the remaining clusters the chain needs, zero-padding the last
// one, and terminating it with FileEnd. All FAT copies are persisted once
// the whole chain has been written.
//
// entry.FirstCluster must already be allocated by the caller (InsertFile
// reserves it before measuring out the chain); writeFile only allocates the
// need-1 clusters after it.
func (v *Volume) writeFile(host HostFile, entry *DirectoryEntry) error {
	clusterSize := int64(v.superblock.ClusterSize)

	need := int(math.Ceil(float64(entry.Size) / float64(clusterSize)))
	if need == 0 {
		need = 1
	}

	indices := []uint32{entry.FirstCluster}
	if need > 1 {
		extra, err := v.allocateFreeClusters(need - 1)
		if err != nil {
			return err
		}
		indices = append(indices, extra...)
	}

	if _, err := host.Seek(0, io.SeekStart); err != nil {
		return errors.ErrHostIO.WrapError(err)
	}

	remaining := entry.Size
	for i, cluster := range indices {
		toRead := clusterSize
		if remaining < toRead {
			toRead = remaining
		}

		buf := make([]byte, toRead)
		if toRead > 0 {
			if _, err := io.ReadFull(host, buf); err != nil {
				return errors.ErrHostIO.WrapError(err)
			}
		}

		if err := v.writeCluster(cluster, buf); err != nil {
			return err
		}

		if i == len(indices)-1 {
			v.setFatSlot(cluster, image.FileEnd)
		} else {
			v.setFatSlot(cluster, indices[i+1])
		}
		remaining -= toRead
	}

	return v.io.WriteFATAll(v.superblock.ClusterCount, v.superblock.FATCopies, v.fat)
}
