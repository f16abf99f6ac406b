// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package rates walks the descendants
// of a gene duplication node
// matched across the calibrated trees of a family
// (chronogram, ratogram, and phylogram)
// and reports the local substitution rate of each branch
// against its time distance from the duplication.
package rates

import (
	"fmt"

	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/topology"
	"gonum.org/v1/gonum/stat"
)

// A Record is the rate and time distance
// of a single branch
// inside a duplication subtree.
type Record struct {
	// Family is the gene family identifier.
	Family string

	// Taxon is the label of the duplication node.
	Taxon string

	// Distance is the time since the duplication,
	// in the units of the chronogram
	// (usually million years).
	Distance float64

	// Rate is the local substitution rate of the branch,
	// taken from the ratogram.
	Rate float64

	// Hash is the topology hash of the duplication node.
	Hash string

	// Tips is the number of terminals
	// descendant from the duplication node.
	Tips int

	// MeanHeight is the mean terminal height
	// of the duplication subtree
	// in the phylogram,
	// in substitutions per site.
	MeanHeight float64
}

// Walk traverses the subtree of a duplication node
// in lock-step across the chronogram,
// the ratogram,
// and the phylogram of a family,
// and returns one record per internal branch
// of the duplication subtree.
//
// The three nodes must be the same split
// on trees built from the same topology,
// with children in the same order,
// and already indexed by topology.Index.
// A child-count mismatch between the trees
// is reported as an error.
//
// Recursion along a lineage stops
// when it enters a nested duplication node
// (an internal node with an unsuffixed label);
// the nested node is reported by its own walk,
// never by the walk of its ancestor.
func Walk(family string, chrono, rato, phylo *gentree.Node) ([]Record, error) {
	heights := termHeights(phylo, phylo.DistRoot, nil)
	tips := len(heights)
	mean := stat.Mean(heights, nil)

	w := walker{
		rec: Record{
			Family:     family,
			Taxon:      chrono.Name,
			Hash:       chrono.Hash,
			Tips:       tips,
			MeanHeight: mean,
		},
		origin: chrono.DistRoot,
	}
	if err := w.walk(chrono, rato, phylo, true); err != nil {
		return nil, fmt.Errorf("family %q: taxon %q: %v", family, chrono.Name, err)
	}
	return w.rows, nil
}

// WalkPair is like Walk,
// but compares a chronogram and a ratogram only.
// The tips and mean height fields of the records
// are left as zero values,
// and should be written with WritePairTSV.
func WalkPair(family string, chrono, rato *gentree.Node) ([]Record, error) {
	w := walker{
		rec: Record{
			Family: family,
			Taxon:  chrono.Name,
			Hash:   chrono.Hash,
		},
		origin: chrono.DistRoot,
	}
	if err := w.walk(chrono, rato, rato, true); err != nil {
		return nil, fmt.Errorf("family %q: taxon %q: %v", family, chrono.Name, err)
	}
	return w.rows, nil
}

// TermHeights returns the root distances
// of the terminals under a node,
// net of the distance of the node itself.
func termHeights(n *gentree.Node, origin float64, hs []float64) []float64 {
	if n.IsTerm() {
		return append(hs, n.DistRoot-origin)
	}
	for _, c := range n.Children {
		hs = termHeights(c, origin, hs)
	}
	return hs
}

type walker struct {
	rec    Record
	origin float64
	rows   []Record
}

func (w *walker) walk(cn, rn, pn *gentree.Node, isOrigin bool) error {
	if cn.IsTerm() {
		return nil
	}
	if !isOrigin && topology.IsAnchor(cn.Name) {
		// a nested duplication
		return nil
	}
	if len(cn.Children) != len(rn.Children) || len(cn.Children) != len(pn.Children) {
		return fmt.Errorf("node %q: inconsistent topology between calibrated trees", cn.Name)
	}

	rec := w.rec
	rec.Distance = cn.DistRoot - w.origin
	rec.Rate = rn.Len
	w.rows = append(w.rows, rec)

	for i := range cn.Children {
		if err := w.walk(cn.Children[i], rn.Children[i], pn.Children[i], false); err != nil {
			return err
		}
	}
	return nil
}
