// Package image implements the lowest layer of the volume format: bit-exact
// byte-range reads and writes of the superblock, the mirrored FAT copies, and
// individual clusters, plus the offset arithmetic that locates all three
// inside the host image file.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/fatimg/errors"
)

// Cluster allocation table sentinel values. Any FAT slot holding a value
// other than these four names the index of its chain successor.
const (
	Unused           uint32 = 65535
	FileEnd          uint32 = 65534
	Bad              uint32 = 65533
	DirectoryContent uint32 = 65532
)

// FirstContentIndex is the lowest cluster index allocateFreeCluster will ever
// hand out by default; cluster 0 is reserved for the root directory.
const FirstContentIndex = 1

// rawSuperblock is the on-disk layout of the superblock, field for field.
// encoding/binary writes each field at its natural width with no padding
// between fields, which is exactly the packing §6.1 requires.
type rawSuperblock struct {
	VolumeDescriptor              [251]byte
	FATType                       int32
	FATCopies                     int32
	ClusterSize                   uint32
	RootDirectoryMaxEntriesCount  uint64
	ClusterCount                  uint32
	ReservedClusterCount          uint32
	Signature                     [4]byte
}

// SuperblockSize is the fixed byte size of the superblock record.
var SuperblockSize = binary.Size(rawSuperblock{})

// Superblock is the user-friendly, decoded form of the on-disk record.
type Superblock struct {
	VolumeDescriptor             string
	FATType                      int32
	FATCopies                    int32
	ClusterSize                  uint32
	RootDirectoryMaxEntriesCount uint64
	ClusterCount                 uint32
	ReservedClusterCount         uint32
	Signature                    string
}

// Signature values a superblock's Signature field may carry.
const (
	SignatureOK      = "OK"
	SignatureNotOK   = "NOK"
	SignatureFailure = "FAI"
)

// DefaultSuperblock returns the default construction values for a fresh
// image, per the fixed defaults: 2 FAT copies, FAT type 12, 150-byte
// clusters, and a root directory capped at 3 entries.
func DefaultSuperblock() Superblock {
	const fatType = 12
	const reserved = 0

	return Superblock{
		VolumeDescriptor:             "fatimg volume",
		FATType:                      fatType,
		FATCopies:                    2,
		ClusterSize:                  150,
		RootDirectoryMaxEntriesCount: 3,
		ClusterCount:                 (1 << fatType) - reserved,
		ReservedClusterCount:         reserved,
		Signature:                    SignatureOK,
	}
}

func packFixedString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("string %q is %d bytes, field only holds %d", s, len(s), len(dst))
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

// EncodeSuperblock packs sb into the exact on-disk byte layout.
func EncodeSuperblock(sb Superblock) ([]byte, error) {
	var raw rawSuperblock

	if err := packFixedString(raw.VolumeDescriptor[:], sb.VolumeDescriptor); err != nil {
		return nil, errors.ErrInvalidArgument.WrapError(err)
	}
	if err := packFixedString(raw.Signature[:], sb.Signature); err != nil {
		return nil, errors.ErrInvalidArgument.WrapError(err)
	}

	raw.FATType = sb.FATType
	raw.FATCopies = sb.FATCopies
	raw.ClusterSize = sb.ClusterSize
	raw.RootDirectoryMaxEntriesCount = sb.RootDirectoryMaxEntriesCount
	raw.ClusterCount = sb.ClusterCount
	raw.ReservedClusterCount = sb.ReservedClusterCount

	out := make([]byte, SuperblockSize)
	writer := bytewriter.New(out)
	if err := binary.Write(writer, binary.LittleEndian, &raw); err != nil {
		return nil, errors.ErrHostIO.WrapError(err)
	}
	return out, nil
}

// DecodeSuperblock unpacks a SuperblockSize-byte record read from offset 0.
// It fails with ErrDamaged if the first byte of the volume descriptor is
// zero, matching the on-load corruption check.
func DecodeSuperblock(data []byte) (Superblock, error) {
	if len(data) < SuperblockSize {
		return Superblock{}, errors.ErrHostIO.WithMessage("short superblock read")
	}
	if data[0] == 0 {
		return Superblock{}, errors.ErrDamaged
	}

	var raw rawSuperblock
	reader := bytes.NewReader(data[:SuperblockSize])
	if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
		return Superblock{}, errors.ErrHostIO.WrapError(err)
	}

	return Superblock{
		VolumeDescriptor:             unpackFixedString(raw.VolumeDescriptor[:]),
		FATType:                      raw.FATType,
		FATCopies:                    raw.FATCopies,
		ClusterSize:                  raw.ClusterSize,
		RootDirectoryMaxEntriesCount: raw.RootDirectoryMaxEntriesCount,
		ClusterCount:                 raw.ClusterCount,
		ReservedClusterCount:         raw.ReservedClusterCount,
		Signature:                    unpackFixedString(raw.Signature[:]),
	}, nil
}
