// Package fixtures builds in-memory images for tests: volume.Opener and
// volume.Handle implementations backed by a fixed-size byte buffer instead
// of a host file, following the same bytesextra-backed in-memory buffer
// the teacher's testing package uses for disk images.
package fixtures

import (
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/image"
	"github.com/dargueta/fatimg/volume"
)

// memHandle adapts a bytesextra.NewReadWriteSeeker buffer to the ReadAt/
// WriteAt pair volume.Handle requires, serializing the seek-then-read-or-
// write sequence with its own lock since io.ReadWriteSeeker isn't safe for
// concurrent use on its own.
type memHandle struct {
	mu     sync.Mutex
	rws    io.ReadWriteSeeker
	size   int64
	closed bool
}

func newMemHandle(buf []byte) *memHandle {
	return &memHandle{rws: bytesextra.NewReadWriteSeeker(buf), size: int64(len(buf))}
}

func (h *memHandle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if off < 0 || off > h.size {
		return 0, fmt.Errorf("fixtures: read offset %d out of range", off)
	}
	if _, err := h.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(h.rws, p)
}

func (h *memHandle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if off < 0 || off+int64(len(p)) > h.size {
		return 0, fmt.Errorf("fixtures: write at %d, len %d exceeds fixed size %d", off, len(p), h.size)
	}
	if _, err := h.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return h.rws.Write(p)
}

// Truncate changes the logical size of the fixture. Fixtures are fixed-size
// by construction (CreateEmptyFat's Remove+reopen cycle rebuilds the
// backing buffer instead), so this is only ever called with the buffer's
// existing size.
func (h *memHandle) Truncate(size int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if size != h.size {
		return fmt.Errorf("fixtures: truncate to %d not supported, buffer is fixed at %d", size, h.size)
	}
	return nil
}

func (h *memHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// MemOpener is a volume.Opener over an in-memory buffer, sized once at
// construction from the superblock layout it's given. Unlike a one-shot
// buffer, it keeps the same backing bytes across Open calls so content
// written before a Close survives a later reopen, the way a real host file
// would.
type MemOpener struct {
	mu   sync.Mutex
	size int64
	buf  []byte
}

// NewMemOpener returns an Opener over a zeroed buffer sized to hold a
// superblock, every FAT copy, and every cluster described by sb.
func NewMemOpener(sb image.Superblock) *MemOpener {
	size := image.ClustersStart(sb.ClusterCount, sb.FATCopies) +
		int64(sb.ClusterCount)*int64(sb.ClusterSize)
	return &MemOpener{size: size, buf: make([]byte, size)}
}

func (o *MemOpener) Open() (volume.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return newMemHandle(o.buf), nil
}

// Remove replaces the backing buffer with a fresh zeroed one, mirroring an
// unlink of a host file: the next Open starts from nothing.
func (o *MemOpener) Remove() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = make([]byte, o.size)
	return nil
}

// NewVolume opens a brand new volume over an in-memory buffer sized for sb
// and formats it, ready for immediate use in a test.
func NewVolume(sb image.Superblock) (*volume.Volume, error) {
	return volume.Create(NewMemOpener(sb), sb, diag.NewStdSink())
}
