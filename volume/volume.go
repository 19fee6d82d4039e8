// Package volume owns the in-memory superblock, the canonical FAT, the
// free-cluster bitmap, and the root directory listing of a single image,
// serialized behind a mutex that approximates the re-entrant lock the
// original design calls for. Go has no native recursive mutex; every
// exported method here acquires the lock once and either does its work
// directly or delegates to an unexported method of the same name (prefixed
// with a lowercase letter) that assumes the lock is already held, so
// internal call chains never re-lock.
package volume

import (
	"sync"
	"time"

	"github.com/boljen/go-bitmap"

	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/errors"
	"github.com/dargueta/fatimg/image"
)

// Handle is the host-side image file: a RandomAccess byte range plus the
// lifecycle operations createEmptyFat needs to recreate it from scratch.
type Handle interface {
	image.RandomAccess
	Truncate(size int64) error
	Close() error
}

// Opener creates or reopens the host-side image file. The command layer
// backs this with *os.File; the fixtures package backs it with an in-memory
// buffer for tests.
type Opener interface {
	Open() (Handle, error)
	Remove() error
}

// Volume is the runtime aggregate described in §3.4: the open image handle,
// the decoded superblock, the canonical FAT (mirrors are generated only on
// save), the free-cluster bitmap, and the root directory's entry list.
type Volume struct {
	mu sync.Mutex

	opener Opener
	handle Handle
	io     *image.IO

	superblock image.Superblock
	fat        []uint32
	freemap    bitmap.Bitmap
	rootDir    []DirectoryEntry
}

// rootEntry is the synthetic pseudo-entry path resolution starts from: name
// "/", first_cluster 0, always a directory.
func rootEntry() DirectoryEntry {
	return DirectoryEntry{
		Name:         "/",
		Mode:         "rwxrwxrwx",
		Type:         EntryTypeDirectory,
		Size:         0,
		FirstCluster: 0,
	}
}

// Open opens or creates the image through opener and loads it into memory.
func Open(opener Opener) (*Volume, error) {
	handle, err := opener.Open()
	if err != nil {
		return nil, errors.ErrHostIO.WrapError(err)
	}

	v := &Volume{
		opener: opener,
		handle: handle,
		io:     image.New(handle),
	}

	if err := v.load(); err != nil {
		return nil, err
	}
	return v, nil
}

// Create opens a brand-new image through opener and formats it immediately
// with sb, skipping Open's usual load step: a freshly created host file has
// no valid superblock yet for load to decode.
func Create(opener Opener, sb image.Superblock, sink diag.Sink) (*Volume, error) {
	handle, err := opener.Open()
	if err != nil {
		return nil, errors.ErrHostIO.WrapError(err)
	}

	v := &Volume{
		opener: opener,
		handle: handle,
		io:     image.New(handle),
	}

	if err := v.createEmptyFat(sb, sink); err != nil {
		return nil, err
	}
	return v, nil
}

// load decodes the superblock, reads every FAT copy into the canonical
// working FAT, rebuilds the free-cluster bitmap, and decodes cluster 0 into
// the root directory list.
func (v *Volume) load() error {
	sb, err := v.io.ReadSuperblock()
	if err != nil {
		return err
	}
	v.superblock = sb

	fat, err := v.io.ReadFATCopy(sb.ClusterCount, sb.FATCopies, 0)
	if err != nil {
		return err
	}
	v.fat = fat
	v.rebuildFreemap()

	rootCluster, err := v.io.ReadCluster(sb.ClusterCount, sb.FATCopies, sb.ClusterSize, 0)
	if err != nil {
		return err
	}

	entries, err := v.loadDirectory(rootCluster)
	if err != nil {
		return err
	}
	v.rootDir = entries

	return nil
}

// rebuildFreemap recomputes the free-cluster bitmap from the canonical FAT:
// a slot is "used" iff its value is not Unused.
func (v *Volume) rebuildFreemap() {
	v.freemap = bitmap.NewSlice(int(v.superblock.ClusterCount))
	for i, slot := range v.fat {
		v.freemap.Set(i, slot != image.Unused)
	}
}

// CreateEmptyFat formats a brand-new image using the default superblock
// construction values: closes and removes the current handle, pauses
// briefly so a slow host filesystem settles the unlink, reopens, writes the
// superblock and fresh FAT copies, and zero-fills the whole cluster region.
func (v *Volume) CreateEmptyFat(sink diag.Sink) error {
	return v.CreateEmptyFatWithSuperblock(image.DefaultSuperblock(), sink)
}

// CreateEmptyFatWithSuperblock is CreateEmptyFat parameterized over the
// geometry to format with, letting callers (the command layer's optional
// -n profile argument, fixtures) pick something other than the default.
func (v *Volume) CreateEmptyFatWithSuperblock(sb image.Superblock, sink diag.Sink) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.createEmptyFat(sb, sink)
}

func (v *Volume) createEmptyFat(sb image.Superblock, sink diag.Sink) error {
	if v.handle != nil {
		_ = v.handle.Close()
	}
	if err := v.opener.Remove(); err != nil {
		return errors.ErrHostIO.WrapError(err)
	}

	time.Sleep(time.Millisecond)

	handle, err := v.opener.Open()
	if err != nil {
		return errors.ErrHostIO.WrapError(err)
	}
	v.handle = handle
	v.io = image.New(handle)

	v.superblock = sb

	fat := make([]uint32, sb.ClusterCount)
	for i := range fat {
		fat[i] = image.Unused
	}
	fat[0] = image.FileEnd
	v.fat = fat
	v.rebuildFreemap()

	v.rootDir = nil

	if uint64(sb.RootDirectoryMaxEntriesCount)*uint64(DirentSize) > uint64(sb.ClusterSize) {
		sink.Printf("warning: root_directory_max_entries_count=%d times a %d-byte "+
			"directory entry exceeds the %d-byte cluster size; directory listings "+
			"will be truncated",
			sb.RootDirectoryMaxEntriesCount, DirentSize, sb.ClusterSize)
	}

	if err := v.io.WriteSuperblock(sb); err != nil {
		return err
	}
	if err := v.io.WriteFATAll(sb.ClusterCount, sb.FATCopies, fat); err != nil {
		return err
	}

	zeroCluster := make([]byte, sb.ClusterSize)
	for i := uint32(0); i < sb.ClusterCount; i++ {
		if err := v.io.WriteCluster(sb.ClusterCount, sb.FATCopies, sb.ClusterSize, i, zeroCluster); err != nil {
			return err
		}
	}

	return nil
}

// Save persists the superblock, every FAT copy, and the root directory
// listing back to the image.
func (v *Volume) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.save()
}

func (v *Volume) save() error {
	if err := v.io.WriteSuperblock(v.superblock); err != nil {
		return err
	}
	if err := v.io.WriteFATAll(v.superblock.ClusterCount, v.superblock.FATCopies, v.fat); err != nil {
		return err
	}
	return v.saveClusterWithFiles(v.rootDir, 0)
}

// Superblock returns a copy of the currently loaded superblock.
func (v *Volume) Superblock() image.Superblock {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.superblock
}

// RootEntries returns a copy of the root directory's entry list.
func (v *Volume) RootEntries() []DirectoryEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]DirectoryEntry, len(v.rootDir))
	copy(out, v.rootDir)
	return out
}

// FATSlot returns the working FAT's value at slot i.
func (v *Volume) FATSlot(i uint32) uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fat[i]
}

// Close releases the underlying host handle.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handle == nil {
		return nil
	}
	return v.handle.Close()
}
