package volume

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/fatimg/errors"
)

// EntryType distinguishes a file's directory entry from a directory's.
type EntryType int16

const (
	EntryTypeFile      EntryType = 1
	EntryTypeDirectory EntryType = 2
)

// DirentSize is the packed byte width of a single directory entry record:
// 13 (name) + 10 (mode) + 2 (type) + 8 (size) + 4 (first_cluster).
const DirentSize = 13 + 10 + 2 + 8 + 4

// DirectoryEntry is the decoded form of one packed record inside a
// directory cluster.
type DirectoryEntry struct {
	Name         string
	Mode         string
	Type         EntryType
	Size         int64
	FirstCluster uint32
}

// IsDirectory reports whether this entry names a directory.
func (e DirectoryEntry) IsDirectory() bool {
	return e.Type == EntryTypeDirectory
}

type rawDirent struct {
	Name         [13]byte
	Mode         [10]byte
	Type         int16
	Size         int64
	FirstCluster uint32
}

// encodeDirent packs e into a DirentSize-byte record.
func encodeDirent(e DirectoryEntry) ([]byte, error) {
	var raw rawDirent
	if err := packFixedString(raw.Name[:], e.Name); err != nil {
		return nil, errors.ErrInvalidArgument.WrapError(err)
	}
	if err := packFixedString(raw.Mode[:], e.Mode); err != nil {
		return nil, errors.ErrInvalidArgument.WrapError(err)
	}
	raw.Type = int16(e.Type)
	raw.Size = e.Size
	raw.FirstCluster = e.FirstCluster

	out := make([]byte, DirentSize)
	writer := bytewriter.New(out)
	if err := binary.Write(writer, binary.LittleEndian, &raw); err != nil {
		return nil, errors.ErrHostIO.WrapError(err)
	}
	return out, nil
}

// decodeDirent unpacks a DirentSize-byte record. The caller is responsible
// for checking presence (non-zero first name byte) before trusting the
// result.
func decodeDirent(data []byte) (DirectoryEntry, error) {
	var raw rawDirent
	if err := binary.Read(bytes.NewReader(data[:DirentSize]), binary.LittleEndian, &raw); err != nil {
		return DirectoryEntry{}, errors.ErrHostIO.WrapError(err)
	}

	return DirectoryEntry{
		Name:         unpackFixedString(raw.Name[:]),
		Mode:         unpackFixedString(raw.Mode[:]),
		Type:         EntryType(raw.Type),
		Size:         raw.Size,
		FirstCluster: raw.FirstCluster,
	}, nil
}

func packFixedString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return errors.ErrInvalidArgument.WithMessage("string too long for fixed-width field")
	}
	copy(dst, s)
	return nil
}

func unpackFixedString(src []byte) string {
	n := bytes.IndexByte(src, 0)
	if n < 0 {
		return string(src)
	}
	return string(src[:n])
}

// isPresent reports whether a raw DirentSize-byte slot is occupied: the
// first name byte is non-zero.
func isPresent(data []byte) bool {
	return len(data) > 0 && data[0] != 0
}

// loadDirectory decodes the entries packed into a directory cluster's
// payload, skipping slots whose name's first byte is zero.
func (v *Volume) loadDirectory(data []byte) ([]DirectoryEntry, error) {
	var entries []DirectoryEntry

	maxEntries := int(v.superblock.RootDirectoryMaxEntriesCount)
	for i := 0; i < maxEntries; i++ {
		offset := i * DirentSize
		if offset+DirentSize > len(data) {
			break
		}
		slot := data[offset : offset+DirentSize]
		if !isPresent(slot) {
			continue
		}

		entry, err := decodeDirent(slot)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// encodeClusterWithEntries zero-fills a full cluster payload and packs
// entries back to back starting at its first byte. Presence of entries
// beyond len(entries) is implicit: the cluster was zeroed.
func (v *Volume) encodeClusterWithEntries(entries []DirectoryEntry) ([]byte, error) {
	payload := make([]byte, v.superblock.ClusterSize)

	offset := 0
	for _, entry := range entries {
		encoded, err := encodeDirent(entry)
		if err != nil {
			return nil, err
		}
		if offset+len(encoded) > len(payload) {
			return nil, errors.ErrFull.WithMessage("directory entries overflow cluster")
		}
		copy(payload[offset:], encoded)
		offset += len(encoded)
	}

	return payload, nil
}
