package volume

import (
	"fmt"
	"math"

	"github.com/dargueta/fatimg/errors"
	"github.com/dargueta/fatimg/image"
)

// setFatSlot updates the canonical in-memory FAT and the free-cluster
// bitmap. Mirrors are not touched here; they're regenerated wholesale by
// save/WriteFATAll. Callers that need the change durable before save should
// call writeFatSlotToDisk as well.
func (v *Volume) setFatSlot(slot uint32, value uint32) {
	v.fat[slot] = value
	v.freemap.Set(int(slot), value != image.Unused)
}

// writeFatSlotToDisk propagates a single slot update to every FAT copy on
// disk immediately, for operations that must be durable before the next
// explicit Save (matching §4.2.5's "set ... in memory and on disk").
func (v *Volume) writeFatSlotToDisk(slot uint32, value uint32) error {
	for i := int32(0); i < v.superblock.FATCopies; i++ {
		if err := v.io.WriteFATSlot(v.superblock.ClusterCount, i, slot, value); err != nil {
			return err
		}
	}
	return nil
}

// readCluster reads the full payload of cluster n.
func (v *Volume) readCluster(n uint32) ([]byte, error) {
	return v.io.ReadCluster(v.superblock.ClusterCount, v.superblock.FATCopies, v.superblock.ClusterSize, n)
}

// writeCluster writes data (zero-padded to cluster_size) at cluster n.
func (v *Volume) writeCluster(n uint32, data []byte) error {
	return v.io.WriteCluster(v.superblock.ClusterCount, v.superblock.FATCopies, v.superblock.ClusterSize, n, data)
}

// saveClusterWithFiles zero-fills cluster n on disk and packs entries back
// to back starting at its first byte (§4.2.3).
func (v *Volume) saveClusterWithFiles(entries []DirectoryEntry, n uint32) error {
	payload, err := v.encodeClusterWithEntries(entries)
	if err != nil {
		return err
	}
	return v.writeCluster(n, payload)
}

// GetClusters returns the ordered chain of cluster indices belonging to
// entry. Directories have no chain of their own and return an empty slice.
func (v *Volume) GetClusters(entry DirectoryEntry) ([]uint32, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.getClusters(entry)
}

func (v *Volume) getClusters(entry DirectoryEntry) ([]uint32, error) {
	if entry.IsDirectory() {
		return nil, nil
	}

	bound := int(math.Ceil(float64(entry.Size) / float64(v.superblock.ClusterSize)))
	if bound == 0 {
		bound = 1
	}

	var chain []uint32
	current := entry.FirstCluster

	for i := 0; i <= bound; i++ {
		if i == bound {
			return nil, errors.ErrInconsistentFAT.WithMessage(
				fmt.Sprintf("chain from cluster %d exceeded bound of %d steps", entry.FirstCluster, bound))
		}

		chain = append(chain, current)
		next := v.fat[current]
		if next == image.FileEnd {
			return chain, nil
		}
		current = next
	}

	return chain, nil
}

// allocateFreeCluster scans the free bitmap from start for the first free
// slot, marks it used in memory, and returns its index.
func (v *Volume) allocateFreeCluster(start uint32) (uint32, error) {
	for i := start; i < v.superblock.ClusterCount; i++ {
		if !v.freemap.Get(int(i)) {
			v.setFatSlot(i, image.FileEnd)
			return i, nil
		}
	}
	return 0, errors.ErrNoSpace
}

// allocateFreeClusters allocates n clusters in ascending order, each one
// starting its scan just past the previous allocation.
func (v *Volume) allocateFreeClusters(n int) ([]uint32, error) {
	result := make([]uint32, 0, n)
	next := uint32(image.FirstContentIndex)

	for i := 0; i < n; i++ {
		cluster, err := v.allocateFreeCluster(next)
		if err != nil {
			return nil, err
		}
		result = append(result, cluster)
		next = cluster + 1
	}
	return result, nil
}

// clearChain walks the chain starting at head, setting every slot back to
// Unused, stopping at a terminal sentinel. Exceeding clusterCount iterations
// indicates a cyclic or otherwise corrupt chain.
func (v *Volume) clearChain(head uint32) error {
	current := head
	for i := uint32(0); i < v.superblock.ClusterCount; i++ {
		next := v.fat[current]
		v.setFatSlot(current, image.Unused)

		switch next {
		case image.FileEnd, image.Bad, image.DirectoryContent:
			return nil
		default:
			current = next
		}
	}
	return errors.ErrInconsistentFAT.WithMessage("clearChain exceeded cluster_count iterations")
}
