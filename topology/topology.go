// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package topology matches nodes
// across structurally parallel trees of the same gene family
// (for example a chronogram,
// a ratogram,
// and a phylogram produced from the same topology),
// using a hash of the terminal set of each node.
package topology

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"slices"
	"strings"

	"github.com/js-arias/duprates/gentree"
)

// A label with a paralog disambiguation suffix
// ("Homininae_2").
var suffixRx = regexp.MustCompile(`_\d+$`)

// IsAnchor returns true for a label
// that names a duplication or calibration anchor:
// a non-empty taxon name
// without a disambiguation suffix.
func IsAnchor(label string) bool {
	if label == "" {
		return false
	}
	return !suffixRx.MatchString(label)
}

// BaseLabel removes the disambiguation suffix
// of a label,
// if any.
func BaseLabel(label string) string {
	return suffixRx.ReplaceAllString(label, "")
}

// Hash returns the topology hash
// of a set of terminal names.
//
// Two nodes on different trees with an equal hash
// are taken to be the same evolutionary split.
// A hash collision between unrelated splits
// will merge them silently;
// this is an accepted limitation
// as the hash input is the terminal set only.
func Hash(tips []string) string {
	s := slices.Clone(tips)
	slices.Sort(s)
	sum := sha1.Sum([]byte(strings.Join(s, ",")))
	return hex.EncodeToString(sum[:])
}

// Index makes a single depth-first pass over a tree,
// annotating every node with its distance from the root,
// its terminal set,
// and its topology hash.
//
// Every labeled internal node without a disambiguation suffix
// is appended to the bucket of its hash in nodes.
// When the trees of a family are indexed in a fixed order
// (chronogram, then ratogram, then phylogram)
// each bucket holds at most one node per tree,
// in that same order,
// so callers can take the bucket members positionally.
func Index(t *gentree.Tree, nodes map[string][]*gentree.Node) {
	t.DepthFirst(
		func(n *gentree.Node) {
			if n.Parent == nil {
				n.DistRoot = 0
				return
			}
			n.DistRoot = n.Parent.DistRoot + n.Len
		},
		func(n *gentree.Node) {
			if n.IsTerm() {
				n.TipSet = []string{n.Name}
				n.Hash = Hash(n.TipSet)
				return
			}
			var tips []string
			for _, c := range n.Children {
				tips = append(tips, c.TipSet...)
			}
			slices.Sort(tips)
			n.TipSet = tips
			n.Hash = Hash(tips)
			if IsAnchor(n.Name) {
				nodes[n.Hash] = append(nodes[n.Hash], n)
			}
		},
	)
}
