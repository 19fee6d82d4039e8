package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/image"
	"github.com/dargueta/fatimg/volume"
)

func TestDispatch_FormatCreatesValidImage(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "img")
	opener := newFileOpener(imgPath)

	require.NoError(t, dispatch(opener, diag.NewStdSink(), "-n", nil))

	vol, err := volume.Open(opener)
	require.NoError(t, err)
	defer vol.Close()

	require.Equal(t, image.FileEnd, vol.FATSlot(0))
	require.NoError(t, vol.VerifyConsistency())
}

func TestDispatch_FormatWithUnknownProfileErrors(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "img")
	opener := newFileOpener(imgPath)

	err := dispatch(opener, diag.NewStdSink(), "-n", []string{"does-not-exist"})
	require.Error(t, err)
}

func TestDispatch_ImportAndDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "img")
	hostPath := filepath.Join(dir, "host.txt")
	require.NoError(t, os.WriteFile(hostPath, []byte("hello, world"), 0o644))

	opener := newFileOpener(imgPath)
	sink := diag.NewStdSink()

	require.NoError(t, dispatch(opener, sink, "-n", nil))
	require.NoError(t, dispatch(opener, sink, "-a", []string{hostPath, "/a.txt"}))

	vol, err := volume.Open(opener)
	require.NoError(t, err)
	entry, err := vol.Resolve("/a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len("hello, world")), entry.Size)
	require.NoError(t, vol.Close())

	require.NoError(t, dispatch(opener, sink, "-f", []string{"/a.txt"}))

	vol, err = volume.Open(opener)
	require.NoError(t, err)
	defer vol.Close()
	_, err = vol.Resolve("/a.txt")
	require.Error(t, err, "the file must be gone after -f")
}

func TestDispatch_CreateDirectoryThenDefragment(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "img")
	opener := newFileOpener(imgPath)
	sink := diag.NewStdSink()

	require.NoError(t, dispatch(opener, sink, "-n", nil))
	require.NoError(t, dispatch(opener, sink, "-m", []string{"/", "sub"}))
	require.NoError(t, dispatch(opener, sink, "-b", nil))

	vol, err := volume.Open(opener)
	require.NoError(t, err)
	defer vol.Close()

	entry, err := vol.Resolve("/sub")
	require.NoError(t, err)
	require.True(t, entry.IsDirectory())
}

func TestDispatch_UnknownActionErrors(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "img")
	opener := newFileOpener(imgPath)

	err := dispatch(opener, diag.NewStdSink(), "-z", nil)
	require.Error(t, err)
}
