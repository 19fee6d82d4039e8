package image_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/image"
)

// memRandomAccess is a minimal image.RandomAccess backed by a fixed byte
// slice, enough to exercise IO without touching a real file.
type memRandomAccess struct {
	data []byte
}

func (m *memRandomAccess) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *memRandomAccess) WriteAt(p []byte, off int64) (int, error) {
	n := copy(m.data[off:], p)
	return n, nil
}

func TestOffsetArithmetic(t *testing.T) {
	require.Equal(t, int64(image.SuperblockSize), image.FATStart())

	clustersStart := image.ClustersStart(4096, 2)
	require.Equal(t, image.FATStart()+int64(4096)*4*2, clustersStart)

	offset := image.ClusterOffset(4096, 2, 150, 3)
	require.Equal(t, clustersStart+3*150, offset)
}

func TestWriteReadFATAllAndSingleSlot(t *testing.T) {
	const clusterCount = 8
	const fatCopies = 2
	const clusterSize = 16

	size := image.ClusterOffset(clusterCount, fatCopies, clusterSize, clusterCount)
	backing := &memRandomAccess{data: make([]byte, size)}
	io_ := image.New(backing)

	fat := make([]uint32, clusterCount)
	for i := range fat {
		fat[i] = image.Unused
	}
	fat[0] = image.FileEnd

	require.NoError(t, io_.WriteFATAll(clusterCount, fatCopies, fat))

	for copyIdx := int32(0); copyIdx < fatCopies; copyIdx++ {
		got, err := io_.ReadFATCopy(clusterCount, fatCopies, copyIdx)
		require.NoError(t, err)
		require.Equal(t, fat, got)
	}

	require.NoError(t, io_.WriteFATSlot(clusterCount, 1, 2, image.DirectoryContent))
	got, err := io_.ReadFATCopy(clusterCount, fatCopies, 1)
	require.NoError(t, err)
	require.Equal(t, image.DirectoryContent, got[2])

	got0, err := io_.ReadFATCopy(clusterCount, fatCopies, 0)
	require.NoError(t, err)
	require.NotEqual(t, image.DirectoryContent, got0[2], "copy 0 must be untouched by a single-copy write")
}

func TestWriteReadCluster(t *testing.T) {
	const clusterCount = 4
	const fatCopies = 1
	const clusterSize = 10

	size := image.ClusterOffset(clusterCount, fatCopies, clusterSize, clusterCount)
	backing := &memRandomAccess{data: make([]byte, size)}
	io_ := image.New(backing)

	payload := []byte("hi")
	require.NoError(t, io_.WriteCluster(clusterCount, fatCopies, clusterSize, 2, payload))

	got, err := io_.ReadCluster(clusterCount, fatCopies, clusterSize, 2)
	require.NoError(t, err)
	require.Len(t, got, clusterSize)
	require.Equal(t, "hi", string(got[:2]))
	require.Equal(t, make([]byte, clusterSize-2), got[2:], "rest of the cluster must be zero-padded")
}
