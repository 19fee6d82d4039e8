package defrag

import (
	"github.com/dargueta/fatimg/diag"
	"github.com/dargueta/fatimg/image"
	"github.com/dargueta/fatimg/volume"
	"github.com/dargueta/fatimg/workerpool"
)

// Defragmenter owns the tree mirror and drives the analyze/swap loop
// against the volume it was built from.
type Defragmenter struct {
	vol  *volume.Volume
	pool *workerpool.Pool
	tree *Tree
	sink diag.Sink
}

// New builds the in-memory directory tree and returns a Defragmenter ready
// to run against it.
func New(vol *volume.Volume, pool *workerpool.Pool, sink diag.Sink) (*Defragmenter, error) {
	tree, err := BuildTree(vol, pool)
	if err != nil {
		return nil, err
	}
	return &Defragmenter{vol: vol, pool: pool, tree: tree, sink: sink}, nil
}

// Run loops invoking analyze until a full pass produces no changes, then
// saves the volume.
func (d *Defragmenter) Run() error {
	for {
		done, err := d.analyze()
		if err != nil {
			return err
		}
		if done {
			return d.vol.Save()
		}
	}
}

// analyze performs one breadth-first pass over the tree. It returns true
// when the whole tree was scanned with zero changes, false when it made at
// least one swap and should be re-run from a fresh scan (the FAT state it
// saw is now stale past that point).
func (d *Defragmenter) analyze() (bool, error) {
	queue := []int{RootIndex}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		node := d.tree.Nodes[idx]
		if node.Entry.IsDirectory() {
			queue = append(queue, node.Children...)
			continue
		}

		list, err := d.vol.GetClusters(node.Entry)
		if err != nil {
			return false, err
		}

		clusterCount := d.vol.Superblock().ClusterCount
		bad, abandoned := needReplace(list, d.vol, clusterCount)
		if abandoned {
			d.sink.Printf("warning: %s can't be made contiguous, the DIRECTORY_CONTENT "+
				"skip search ran off the end of the volume looking for room", d.tree.GetFullPath(idx))
		}
		if bad <= 0 {
			continue
		}

		d.sink.Printf("defragmenting %s", d.tree.GetFullPath(idx))

		good := list[bad-1]
		for _, c := range list[bad:] {
			target := good + 1
			for d.isSkippable(target) {
				target++
			}

			if err := d.swapFatRegistry(c, target); err != nil {
				return false, err
			}
			good = target
		}

		return false, nil
	}

	return true, nil
}

// isSkippable reports whether target is a slot swapFatRegistry's target
// search should step past: a directory's own content cluster, or a cluster
// already marked bad.
func (d *Defragmenter) isSkippable(target uint32) bool {
	value := d.vol.FATSlot(target)
	return value == image.DirectoryContent || value == image.Bad
}

// needReplace walks the expected contiguous sequence starting at list[0].
// On a mismatch it tries to skip past DIRECTORY_CONTENT slots standing in
// the way. It returns the index of the first cluster that needs to move, or
// 0 if the chain is already contiguous. If the skip search runs off the end
// of the volume before finding room, it gives up on this file and reports
// that distinctly from "already contiguous" via its second return value, per
// §9's documented skip semantics.
func needReplace(list []uint32, vol *volume.Volume, clusterCount uint32) (bad int, abandoned bool) {
	if len(list) == 0 {
		return 0, false
	}

	expected := list[0]
	for i := 1; i < len(list); i++ {
		expected++

		if expected != list[i] {
			for vol.FATSlot(expected) == image.DirectoryContent {
				expected++
				if expected >= clusterCount {
					return 0, true
				}
			}
			if expected != list[i] {
				return i, false
			}
		}
	}

	return 0, false
}

// swapFatRegistry exchanges the roles of clusters lhs and rhs, preserving
// whichever of the FAT, a directory entry's first_cluster, or both point at
// them. See §4.3.4.
func (d *Defragmenter) swapFatRegistry(lhs, rhs uint32) error {
	parentOfRhs := d.vol.ParentOf(rhs)

	if parentOfRhs != image.DirectoryContent {
		return d.swapCaseA(lhs, rhs, parentOfRhs)
	}
	return d.swapCaseB(lhs, rhs)
}

// swapCaseA handles rhs being mid-chain or unused: a plain FAT-and-payload
// swap with no directory entry to rewrite.
func (d *Defragmenter) swapCaseA(lhs, rhs uint32, parentOfRhs uint32) error {
	lhsValue := d.vol.FATSlot(lhs)
	rhsValue := d.vol.FATSlot(rhs)
	parentOfLhs := d.vol.ParentOf(lhs)

	if err := d.vol.SwapClusterPayloads(lhs, rhs); err != nil {
		return err
	}

	if rhsValue != image.Unused {
		d.vol.SetFATSlot(parentOfRhs, lhs)
	}

	d.vol.SetFATSlot(lhs, rhsValue)
	d.vol.SetFATSlot(parentOfLhs, rhs)
	d.vol.SetFATSlot(rhs, lhsValue)
	return nil
}

// swapCaseB handles rhs being a directory head: only reachable through a
// containing directory's entry list, never a FAT predecessor. It rewrites
// that directory entry's first_cluster instead of touching cluster payloads
// (a directory's content cluster doesn't move; only the pointer to it
// does). If the node can't be found in the tree, it falls back to Case A
// silently, per §7's error-handling policy.
func (d *Defragmenter) swapCaseB(lhs, rhs uint32) error {
	nodeIdx := d.findNodeByFirstCluster(rhs)
	if nodeIdx < 0 {
		return d.swapCaseA(lhs, rhs, d.vol.ParentOf(rhs))
	}

	parentIdx := d.tree.Nodes[nodeIdx].Parent
	parentEntry := d.tree.Nodes[parentIdx].Entry

	containingEntries, err := d.vol.EntriesOf(parentEntry)
	if err != nil {
		return err
	}

	found := false
	for i := range containingEntries {
		if containingEntries[i].FirstCluster == rhs {
			containingEntries[i].FirstCluster = lhs
			found = true
			break
		}
	}
	if !found {
		return d.swapCaseA(lhs, rhs, d.vol.ParentOf(rhs))
	}

	lhsValue := d.vol.FATSlot(lhs)
	rhsValue := d.vol.FATSlot(rhs)
	parentOfLhs := d.vol.ParentOf(lhs)

	d.vol.SetFATSlot(lhs, rhsValue)
	d.vol.SetFATSlot(parentOfLhs, rhs)
	d.vol.SetFATSlot(rhs, lhsValue)

	if err := d.vol.WriteParentEntries(parentEntry, containingEntries); err != nil {
		return err
	}

	d.tree.Nodes[nodeIdx].Entry.FirstCluster = lhs
	return nil
}

// findNodeByFirstCluster searches the in-memory tree for the node whose
// directory entry's first_cluster equals n, returning -1 if none matches.
func (d *Defragmenter) findNodeByFirstCluster(n uint32) int {
	for i, node := range d.tree.Nodes {
		if node.Entry.FirstCluster == n {
			return i
		}
	}
	return -1
}
