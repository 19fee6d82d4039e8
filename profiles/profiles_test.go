package profiles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/image"
	"github.com/dargueta/fatimg/profiles"
)

func TestGet_Default_MatchesFixedDefaults(t *testing.T) {
	sb, ok := profiles.Get("default")
	require.True(t, ok)

	want := image.DefaultSuperblock()
	require.Equal(t, want.FATType, sb.FATType)
	require.Equal(t, want.FATCopies, sb.FATCopies)
	require.Equal(t, want.ClusterSize, sb.ClusterSize)
	require.Equal(t, want.RootDirectoryMaxEntriesCount, sb.RootDirectoryMaxEntriesCount)
	require.Equal(t, want.ClusterCount, sb.ClusterCount)
	require.Equal(t, want.ReservedClusterCount, sb.ReservedClusterCount)
}

func TestGet_UnknownProfile(t *testing.T) {
	_, ok := profiles.Get("does-not-exist")
	require.False(t, ok)
}

func TestNames_IncludesAllProfiles(t *testing.T) {
	names := profiles.Names()
	require.Contains(t, names, "default")
	require.Contains(t, names, "tiny")
	require.Contains(t, names, "large")
}
