// Package defrag builds an in-memory mirror of a volume's directory tree
// and iteratively rewrites the FAT and cluster payloads so every file's
// chain becomes a contiguous ascending run.
package defrag

import (
	"sort"

	"github.com/dargueta/fatimg/volume"
	"github.com/dargueta/fatimg/workerpool"
)

// Node is one entry in the arena-indexed tree: a parent index (-1 for the
// root) and a list of child indices, replacing the reference-counted
// parent/child pointers (and the ownership cycles they create) that a more
// direct translation would carry over.
type Node struct {
	Parent   int
	Entry    volume.DirectoryEntry
	Children []int
}

// Tree is the arena: a flat slice of nodes, index 0 is always the volume's
// synthetic root.
type Tree struct {
	Nodes []Node
}

const RootIndex = 0

// BuildTree constructs the tree once, at defragmenter construction, fanning
// sibling directory loads out over pool when it has idle capacity and
// falling back to synchronous recursion otherwise.
func BuildTree(vol *volume.Volume, pool *workerpool.Pool) (*Tree, error) {
	nodes, err := buildSubtree(vol, pool, volume.RootEntry())
	if err != nil {
		return nil, err
	}
	return &Tree{Nodes: nodes}, nil
}

// buildSubtree returns the flattened node list for the subtree rooted at
// entry. nodes[0] is entry itself, with Parent == -1 (relative to this
// slice; the caller merging it into a larger arena rewrites that).
func buildSubtree(vol *volume.Volume, pool *workerpool.Pool, entry volume.DirectoryEntry) ([]Node, error) {
	nodes := []Node{{Parent: -1, Entry: entry}}

	if !entry.IsDirectory() {
		return nodes, nil
	}

	children, err := vol.EntriesOf(entry)
	if err != nil {
		return nil, err
	}
	sortSiblings(children)

	handles := make([]*workerpool.Handle, len(children))
	subtrees := make([][]Node, len(children))

	for i, child := range children {
		i, child := i, child
		handles[i] = pool.Submit(func() error {
			sub, err := buildSubtree(vol, pool, child)
			subtrees[i] = sub
			return err
		})
	}

	for _, h := range handles {
		if err := h.Wait(); err != nil {
			return nil, err
		}
	}

	for _, sub := range subtrees {
		offset := len(nodes)
		for _, n := range sub {
			if n.Parent == -1 {
				n.Parent = 0
			} else {
				n.Parent += offset
			}
			for i := range n.Children {
				n.Children[i] += offset
			}
			nodes = append(nodes, n)
		}
		nodes[0].Children = append(nodes[0].Children, offset)
	}

	return nodes, nil
}

// sortSiblings orders entries directories-first, then by name ascending.
// The source's comparator called strcmp but discarded its result in one
// branch; this is the ordering that call was evidently meant to produce.
func sortSiblings(entries []volume.DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory() != entries[j].IsDirectory() {
			return entries[i].IsDirectory()
		}
		return entries[i].Name < entries[j].Name
	})
}

// GetFullPath reconstructs a node's full path by walking its parent chain,
// used purely for progress logging during analyze.
func (t *Tree) GetFullPath(idx int) string {
	if idx == RootIndex {
		return "/"
	}

	var parts []string
	for i := idx; i != RootIndex; i = t.Nodes[i].Parent {
		parts = append([]string{t.Nodes[i].Entry.Name}, parts...)
	}

	path := ""
	for _, p := range parts {
		path += "/" + p
	}
	return path
}
