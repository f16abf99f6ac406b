// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package gentree implements a rooted gene-family tree
// with branch lengths in arbitrary units
// (time, substitution rate, or substitution distance).
//
// Unlike a time tree,
// a gene tree keeps its branch lengths as raw floats
// and can carry per-node annotations
// such as the gene duplication flag
// of a reconciled gene tree.
package gentree

import (
	"errors"
	"slices"
)

// MillionYears is the base unit
// used when a chronogram is exported as a time tree.
const MillionYears = 1_000_000

// ErrCollapsed is returned when a pruning operation
// removes so many terminals
// that the tree is no longer a valid rooted tree.
var ErrCollapsed = errors.New("tree collapsed by pruning")

// A Node is a node of a gene-family tree.
//
// Traversal annotations
// (DistRoot, TipSet, and Hash)
// are zero valued until set by an indexing pass.
// The Attr map is reserved for pass-through metadata
// of external tools
// and is nil on most nodes.
type Node struct {
	// Name is the node label.
	// It is empty for most internal nodes,
	// a taxon name for duplication and calibration nodes,
	// and the terminal name for tips.
	Name string

	// Len is the length of the branch
	// between the node and its parent.
	// It is undefined at the root.
	Len float64

	Parent   *Node
	Children []*Node

	// DistRoot is the accumulated branch length
	// from the root to the node.
	DistRoot float64

	// TipSet is the sorted set of terminal names
	// descendant from the node.
	TipSet []string

	// Hash is the topology hash of the node.
	Hash string

	// IsDup indicates that the node
	// is a gene duplication event
	// in a reconciled gene tree.
	IsDup bool

	// Attr stores tool-specific metadata pairs.
	Attr map[string]string
}

// IsTerm returns true if the node is a terminal.
func (n *Node) IsTerm() bool {
	return len(n.Children) == 0
}

// A Tree is a rooted gene-family tree.
type Tree struct {
	name string
	root *Node
}

// Name returns the name of the tree,
// usually a gene family identifier.
func (t *Tree) Name() string {
	return t.name
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Terms returns the terminals of the tree
// in their left to right order.
func (t *Tree) Terms() []*Node {
	var terms []*Node
	t.DepthFirst(func(n *Node) {
		if n.IsTerm() {
			terms = append(terms, n)
		}
	}, nil)
	return terms
}

// TermNames returns the sorted names
// of the terminals of the tree.
func (t *Tree) TermNames() []string {
	terms := t.Terms()
	names := make([]string, 0, len(terms))
	for _, n := range terms {
		names = append(names, n.Name)
	}
	slices.Sort(names)
	return names
}

// DepthFirst traverses the tree in depth first order.
// The pre hook is called when a node is entered,
// before any of its children;
// the post hook is called after all of its children
// were visited.
// Either hook can be nil.
// Hooks are allowed to mutate node annotations,
// but not the tree structure.
func (t *Tree) DepthFirst(pre, post func(n *Node)) {
	t.root.depthFirst(pre, post)
}

func (n *Node) depthFirst(pre, post func(n *Node)) {
	if pre != nil {
		pre(n)
	}
	for _, c := range n.Children {
		c.depthFirst(pre, post)
	}
	if post != nil {
		post(n)
	}
}

// PruneTerms removes the indicated terminals from the tree.
// Any internal node left without children
// is removed as well,
// up to the root.
// Internal nodes left with a single child are kept,
// with the child branch preserving its own length.
//
// If the pruning leaves the root without descendant terminals
// it returns ErrCollapsed,
// and the tree should be discarded.
func (t *Tree) PruneTerms(del map[*Node]bool) error {
	if len(del) == 0 {
		return nil
	}
	t.root.prune(del)
	if len(t.root.Children) == 0 {
		return ErrCollapsed
	}
	return nil
}

func (n *Node) prune(del map[*Node]bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.IsTerm() {
			if del[c] {
				c.Parent = nil
				continue
			}
			kept = append(kept, c)
			continue
		}
		c.prune(del)
		if len(c.Children) == 0 {
			c.Parent = nil
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}
