package main

import (
	"os"

	"github.com/dargueta/fatimg/volume"
)

// fileOpener is the host-side volume.Opener backing real images on disk,
// opening the same path every time it's asked to (re)open a handle.
type fileOpener struct {
	path string
}

func newFileOpener(path string) *fileOpener {
	return &fileOpener{path: path}
}

func (o *fileOpener) Open() (volume.Handle, error) {
	return os.OpenFile(o.path, os.O_RDWR|os.O_CREATE, 0o644)
}

func (o *fileOpener) Remove() error {
	err := os.Remove(o.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
