package image

import (
	"encoding/binary"
	"io"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/fatimg/errors"
)

// RandomAccess is the narrow host-I/O primitive this layer consumes: bounded,
// random-access byte reads and writes against the backing image file. The
// command layer and fixtures package are free to back this with an *os.File,
// an in-memory byte slice, or anything else implementing the two methods.
type RandomAccess interface {
	io.ReaderAt
	io.WriterAt
}

// IO is a stateless (beyond the handle it wraps) accessor for the superblock,
// FAT copies, and cluster region of an image. Every method computes its
// target offset from the layout rules in §4.1; callers above this layer are
// responsible for serializing concurrent access.
type IO struct {
	Handle RandomAccess
}

// New wraps a RandomAccess host handle in an IO accessor.
func New(handle RandomAccess) *IO {
	return &IO{Handle: handle}
}

// FATStart is the byte offset of the first FAT copy: immediately after the
// fixed-size superblock record.
func FATStart() int64 {
	return int64(SuperblockSize)
}

// ClustersStart is the byte offset of the cluster region: after the
// superblock and every FAT copy, back to back.
func ClustersStart(clusterCount uint32, fatCopies int32) int64 {
	return FATStart() + int64(clusterCount)*4*int64(fatCopies)
}

// ClusterOffset is the byte offset of cluster n within the cluster region.
func ClusterOffset(clusterCount uint32, fatCopies int32, clusterSize uint32, n uint32) int64 {
	return ClustersStart(clusterCount, fatCopies) + int64(n)*int64(clusterSize)
}

func (io_ *IO) readExact(offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io_.Handle.ReadAt(buf, offset); err != nil {
		return nil, errors.ErrHostIO.WrapError(err)
	}
	return buf, nil
}

func (io_ *IO) writeExact(offset int64, data []byte) error {
	if _, err := io_.Handle.WriteAt(data, offset); err != nil {
		return errors.ErrHostIO.WrapError(err)
	}
	return nil
}

// ReadSuperblock reads the fixed-size record at offset 0.
func (io_ *IO) ReadSuperblock() (Superblock, error) {
	data, err := io_.readExact(0, SuperblockSize)
	if err != nil {
		return Superblock{}, err
	}
	return DecodeSuperblock(data)
}

// WriteSuperblock writes sb's exact record at offset 0.
func (io_ *IO) WriteSuperblock(sb Superblock) error {
	data, err := EncodeSuperblock(sb)
	if err != nil {
		return err
	}
	return io_.writeExact(0, data)
}

// ReadFATCopy reads the i-th FAT copy in full, returning cluster_count
// 32-bit slots in order.
func (io_ *IO) ReadFATCopy(clusterCount uint32, fatCopies int32, i int32) ([]uint32, error) {
	offset := FATStart() + int64(i)*int64(clusterCount)*4
	data, err := io_.readExact(offset, int(clusterCount)*4)
	if err != nil {
		return nil, err
	}

	slots := make([]uint32, clusterCount)
	for idx := range slots {
		slots[idx] = binary.LittleEndian.Uint32(data[idx*4 : idx*4+4])
	}
	return slots, nil
}

// WriteFATAll overwrites every one of fatCopies FAT copies with the same
// slot contents.
func (io_ *IO) WriteFATAll(clusterCount uint32, fatCopies int32, fat []uint32) error {
	data := make([]byte, int(clusterCount)*4)
	for idx, slot := range fat {
		binary.LittleEndian.PutUint32(data[idx*4:idx*4+4], slot)
	}

	for i := int32(0); i < fatCopies; i++ {
		offset := FATStart() + int64(i)*int64(clusterCount)*4
		if err := io_.writeExact(offset, data); err != nil {
			return err
		}
	}
	return nil
}

// WriteFATSlot updates a single slot in-place in copy i.
func (io_ *IO) WriteFATSlot(clusterCount uint32, i int32, slot uint32, value uint32) error {
	offset := FATStart() + int64(i)*int64(clusterCount)*4 + int64(slot)*4
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)
	return io_.writeExact(offset, data[:])
}

// ReadCluster reads the full cluster_size payload of cluster n.
func (io_ *IO) ReadCluster(clusterCount uint32, fatCopies int32, clusterSize uint32, n uint32) ([]byte, error) {
	offset := ClusterOffset(clusterCount, fatCopies, clusterSize, n)
	return io_.readExact(offset, int(clusterSize))
}

// WriteCluster writes exactly clusterSize bytes at cluster n's offset,
// zero-padding (or truncating) data to fit.
func (io_ *IO) WriteCluster(clusterCount uint32, fatCopies int32, clusterSize uint32, n uint32, data []byte) error {
	padded := make([]byte, clusterSize)
	bw := bytewriter.New(padded)
	if _, err := bw.Write(data); err != nil {
		return errors.ErrHostIO.WrapError(err)
	}

	offset := ClusterOffset(clusterCount, fatCopies, clusterSize, n)
	return io_.writeExact(offset, padded)
}
