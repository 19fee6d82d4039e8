package volume

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/image"
)

// memHandle is a self-contained in-memory Handle for this package's
// internal (white-box) tests. It's deliberately not the fixtures package's
// equivalent: fixtures imports volume, so a same-package test file here
// importing fixtures back would be a cycle.
type memHandle struct {
	data []byte
}

func (h *memHandle) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, h.data[off:])
	return n, nil
}

func (h *memHandle) WriteAt(p []byte, off int64) (int, error) {
	n := copy(h.data[off:], p)
	return n, nil
}

func (h *memHandle) Truncate(int64) error { return nil }
func (h *memHandle) Close() error         { return nil }

type memOpener struct {
	size int64
}

func (o *memOpener) Open() (Handle, error) {
	return &memHandle{data: make([]byte, o.size)}, nil
}

func (o *memOpener) Remove() error { return nil }

func newTestVolume(t *testing.T) *Volume {
	t.Helper()
	sb := image.DefaultSuperblock()
	size := image.ClustersStart(sb.ClusterCount, sb.FATCopies) + int64(sb.ClusterCount)*int64(sb.ClusterSize)

	vol, err := Create(&memOpener{size: size}, sb, diag.NewStdSink())
	require.NoError(t, err)
	return vol
}

func TestVerifyConsistency_CleanVolume(t *testing.T) {
	vol := newTestVolume(t)

	require.NoError(t, vol.CreateDirectory("/", "sub"))
	require.NoError(t, vol.InsertFile(bytes.NewReader(bytes.Repeat([]byte("y"), 400)), "/a.txt"))

	require.NoError(t, vol.VerifyConsistency())
}

func TestVerifyConsistency_DetectsFATCopyDisagreement(t *testing.T) {
	vol := newTestVolume(t)

	require.NoError(t, vol.io.WriteFATSlot(vol.superblock.ClusterCount, 1, 5, image.Bad))

	require.Error(t, vol.VerifyConsistency())
}

func TestVerifyConsistency_DetectsSharedFirstCluster(t *testing.T) {
	vol := newTestVolume(t)

	vol.rootDir = append(vol.rootDir,
		DirectoryEntry{Name: "a", Type: EntryTypeFile, Size: 1, FirstCluster: 1},
		DirectoryEntry{Name: "b", Type: EntryTypeFile, Size: 1, FirstCluster: 1},
	)
	vol.setFatSlot(1, image.FileEnd)

	require.Error(t, vol.VerifyConsistency())
}
