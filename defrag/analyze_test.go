package defrag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/fixtures"
	"github.com/dargueta/fatimg/image"
)

func TestNeedReplace_AlreadyContiguous(t *testing.T) {
	vol, err := fixtures.NewVolume(image.DefaultSuperblock())
	require.NoError(t, err)

	bad, abandoned := needReplace([]uint32{1, 2, 3}, vol, vol.Superblock().ClusterCount)
	require.Equal(t, 0, bad)
	require.False(t, abandoned)
}

func TestNeedReplace_Gap(t *testing.T) {
	vol, err := fixtures.NewVolume(image.DefaultSuperblock())
	require.NoError(t, err)

	bad, abandoned := needReplace([]uint32{1, 5, 7}, vol, vol.Superblock().ClusterCount)
	require.Equal(t, 1, bad)
	require.False(t, abandoned)
}

func TestNeedReplace_SkipsDirectoryContent(t *testing.T) {
	vol, err := fixtures.NewVolume(image.DefaultSuperblock())
	require.NoError(t, err)

	vol.SetFATSlot(2, image.DirectoryContent)

	bad, abandoned := needReplace([]uint32{1, 3}, vol, vol.Superblock().ClusterCount)
	require.Equal(t, 0, bad)
	require.False(t, abandoned)
}

func TestNeedReplace_EmptyList(t *testing.T) {
	vol, err := fixtures.NewVolume(image.DefaultSuperblock())
	require.NoError(t, err)

	bad, abandoned := needReplace(nil, vol, vol.Superblock().ClusterCount)
	require.Equal(t, 0, bad)
	require.False(t, abandoned)
}

// TestNeedReplace_AbandonsWhenSkipSearchRunsOffTheEnd covers the case the
// caller must distinguish from "already contiguous": every slot from the
// expected position to the end of the volume carries DIRECTORY_CONTENT, so
// the skip search never finds the gap's match and gives up.
func TestNeedReplace_AbandonsWhenSkipSearchRunsOffTheEnd(t *testing.T) {
	vol, err := fixtures.NewVolume(image.DefaultSuperblock())
	require.NoError(t, err)

	clusterCount := vol.Superblock().ClusterCount
	for c := uint32(2); c < clusterCount; c++ {
		vol.SetFATSlot(c, image.DirectoryContent)
	}

	bad, abandoned := needReplace([]uint32{1, clusterCount - 1}, vol, clusterCount)
	require.Equal(t, 0, bad)
	require.True(t, abandoned)
}
