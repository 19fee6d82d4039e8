package volume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDirent_RoundTrip(t *testing.T) {
	want := DirectoryEntry{
		Name:         "readme.txt",
		Mode:         "rwxr-xr-x",
		Type:         EntryTypeFile,
		Size:         1234,
		FirstCluster: 7,
	}

	encoded, err := encodeDirent(want)
	require.NoError(t, err)
	require.Len(t, encoded, DirentSize)

	got, err := decodeDirent(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEncodeDirent_RejectsOversizeName(t *testing.T) {
	_, err := encodeDirent(DirectoryEntry{Name: "this-name-is-far-too-long-for-the-field"})
	require.Error(t, err)
}

func TestIsPresent(t *testing.T) {
	require.False(t, isPresent(make([]byte, DirentSize)))

	occupied := make([]byte, DirentSize)
	occupied[0] = 'a'
	require.True(t, isPresent(occupied))

	require.False(t, isPresent(nil))
}

func TestLoadDirectory_SkipsEmptySlots(t *testing.T) {
	vol := newTestVolume(t)

	present := []DirectoryEntry{
		{Name: "a", Type: EntryTypeFile, Size: 10, FirstCluster: 1},
		{Name: "b", Type: EntryTypeDirectory, Size: 0, FirstCluster: 2},
	}

	payload := make([]byte, vol.superblock.ClusterSize)
	encodedA, err := encodeDirent(present[0])
	require.NoError(t, err)
	copy(payload[0:], encodedA)
	// Slot 1 (offset DirentSize) is left zeroed - must be skipped.
	encodedB, err := encodeDirent(present[1])
	require.NoError(t, err)
	copy(payload[2*DirentSize:], encodedB)

	got, err := vol.loadDirectory(payload)
	require.NoError(t, err)
	require.Equal(t, present, got)
}

func TestLoadDirectory_StopsAtMaxEntriesCount(t *testing.T) {
	vol := newTestVolume(t)
	vol.superblock.RootDirectoryMaxEntriesCount = 1

	payload := make([]byte, vol.superblock.ClusterSize)
	first, err := encodeDirent(DirectoryEntry{Name: "only", Type: EntryTypeFile, FirstCluster: 1})
	require.NoError(t, err)
	copy(payload[0:], first)
	second, err := encodeDirent(DirectoryEntry{Name: "ignored", Type: EntryTypeFile, FirstCluster: 2})
	require.NoError(t, err)
	copy(payload[DirentSize:], second)

	got, err := vol.loadDirectory(payload)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "only", got[0].Name)
}
