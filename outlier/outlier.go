// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package outlier removes terminals
// with aberrant branch lengths
// from a gene-family tree.
//
// A terminal branch several standard deviations
// away from the mean terminal branch length
// is usually an alignment or assembly artifact
// and would distort the rate smoothing downstream.
package outlier

import (
	"fmt"

	"github.com/js-arias/duprates/gentree"
	"gonum.org/v1/gonum/stat"
)

// DefaultDeviations is the default number
// of standard deviations from the mean
// used to flag a terminal branch as an outlier.
const DefaultDeviations = 8.0

// Prune removes the terminals of a tree
// whose branch length is more than dev standard deviations
// away from the mean terminal branch length.
// Statistics are recomputed after each pass
// and pruning repeats until no terminal is flagged.
// If dev is zero or negative
// it uses DefaultDeviations.
//
// It returns the number of removed terminals.
// If a pass flags every remaining terminal
// the tree is unusable
// and it returns gentree.ErrCollapsed.
func Prune(t *gentree.Tree, dev float64) (removed int, err error) {
	if dev <= 0 {
		dev = DefaultDeviations
	}

	for {
		terms := t.Terms()
		if len(terms) < 3 {
			return removed, nil
		}

		lens := make([]float64, 0, len(terms))
		for _, n := range terms {
			lens = append(lens, n.Len)
		}
		m, sd := stat.MeanStdDev(lens, nil)

		del := make(map[*gentree.Node]bool)
		for _, n := range terms {
			if n.Len > m+dev*sd || n.Len < m-dev*sd {
				del[n] = true
			}
		}
		if len(del) == 0 {
			return removed, nil
		}
		if len(del) == len(terms) {
			return removed, fmt.Errorf("tree %q: all %d terminals flagged as outliers: %w", t.Name(), len(terms), gentree.ErrCollapsed)
		}
		if err := t.PruneTerms(del); err != nil {
			return removed, fmt.Errorf("tree %q: %w", t.Name(), err)
		}
		removed += len(del)
	}
}
