package volume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path       string
		wantParent string
		wantLeaf   string
	}{
		{"/a.txt", "/", "a.txt"},
		{"/sub/a.txt", "/sub", "a.txt"},
		{"noSlash", "", "noSlash"},
		{"/", "/", ""},
	}

	for _, c := range cases {
		parent, leaf := splitPath(c.path)
		require.Equal(t, c.wantParent, parent, "path %q", c.path)
		require.Equal(t, c.wantLeaf, leaf, "path %q", c.path)
	}
}

func TestFindFileDescriptor_NoSlashResolvesToCurrentDirectory(t *testing.T) {
	vol := newTestVolume(t)

	entry, err := vol.findFileDescriptor(rootEntry(), vol.rootDir, "")
	require.NoError(t, err)
	require.Equal(t, rootEntry(), entry)
}

func TestFindFileDescriptor_MatchesFileAtTopLevel(t *testing.T) {
	vol := newTestVolume(t)
	vol.rootDir = append(vol.rootDir, DirectoryEntry{Name: "a.txt", Type: EntryTypeFile, FirstCluster: 1})

	entry, err := vol.findFileDescriptor(rootEntry(), vol.rootDir, "/a.txt")
	require.NoError(t, err)
	require.Equal(t, "a.txt", entry.Name)
}

func TestFindFileDescriptor_UnknownLeafFails(t *testing.T) {
	vol := newTestVolume(t)

	_, err := vol.findFileDescriptor(rootEntry(), vol.rootDir, "/missing.txt")
	require.Error(t, err)
}
