package volume

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/fatimg/image"
)

// VerifyConsistency walks the whole directory tree and checks the §8 FAT
// and directory invariants (FAT copies agree, chains terminate within their
// bound, directories are marked DIRECTORY_CONTENT, no shared first_cluster,
// no shared successor), aggregating every violation it finds instead of
// stopping at the first one. The offset arithmetic invariant is not checked.
func (v *Volume) VerifyConsistency() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verifyConsistency()
}

func (v *Volume) verifyConsistency() error {
	var result *multierror.Error

	result = multierror.Append(result, v.checkFATCopiesAgree())

	seenFirstClusters := map[uint32]string{}
	seenSuccessors := map[uint32]string{}

	var walk func(path string, entries []DirectoryEntry) error
	walk = func(path string, entries []DirectoryEntry) error {
		var inner *multierror.Error

		for _, entry := range entries {
			entryPath := path + "/" + entry.Name

			if owner, ok := seenFirstClusters[entry.FirstCluster]; ok {
				inner = multierror.Append(inner, fmt.Errorf(
					"%s and %s share first_cluster %d", owner, entryPath, entry.FirstCluster))
			} else {
				seenFirstClusters[entry.FirstCluster] = entryPath
			}

			if entry.IsDirectory() {
				if entry.FirstCluster != 0 && v.fat[entry.FirstCluster] != image.DirectoryContent {
					inner = multierror.Append(inner, fmt.Errorf(
						"directory %s at cluster %d is not marked DIRECTORY_CONTENT", entryPath, entry.FirstCluster))
				}

				children, err := v.entriesOf(entry)
				if err != nil {
					inner = multierror.Append(inner, fmt.Errorf("%s: %w", entryPath, err))
					continue
				}
				if err := walk(entryPath, children); err != nil {
					inner = multierror.Append(inner, err)
				}
				continue
			}

			chain, err := v.getClusters(entry)
			if err != nil {
				inner = multierror.Append(inner, fmt.Errorf("%s: %w", entryPath, err))
				continue
			}
			for _, cluster := range chain[:max(0, len(chain)-1)] {
				successor := v.fat[cluster]
				if owner, ok := seenSuccessors[successor]; ok {
					inner = multierror.Append(inner, fmt.Errorf(
						"successor cluster %d reused by both %s and %s", successor, owner, entryPath))
				} else {
					seenSuccessors[successor] = entryPath
				}
			}
		}

		return inner.ErrorOrNil()
	}

	if err := walk("", v.rootDir); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (v *Volume) checkFATCopiesAgree() error {
	var result *multierror.Error

	for i := int32(0); i < v.superblock.FATCopies; i++ {
		copyI, err := v.io.ReadFATCopy(v.superblock.ClusterCount, v.superblock.FATCopies, i)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("reading FAT copy %d: %w", i, err))
			continue
		}
		for slot, value := range copyI {
			if value != v.fat[slot] {
				result = multierror.Append(result, fmt.Errorf(
					"FAT copy %d disagrees with canonical FAT at slot %d: %d != %d", i, slot, value, v.fat[slot]))
			}
		}
	}

	return result.ErrorOrNil()
}
