// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package fossil

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/topology"
)

// Resolve retrieves the fossil calibrations
// for every labeled internal node of a tree,
// reading from the cache
// and falling back to the fetcher
// for taxa never fetched before.
// A nil fetcher restricts the resolution to the cache.
//
// Nodes are visited in pre-order,
// so a taxon label repeated on nested nodes
// binds to its outermost occurrence:
// a label repeated on a descendant
// of any retained occurrence
// is cleared
// and will not receive a calibration.
// A label repeated on non-nested nodes
// names paralogous copies of the same divergence
// and is kept for the fan-out done by Map.
//
// Warnings are printed to warn;
// a failed remote fetch is a warning,
// a failed cache write is an error.
func Resolve(t *gentree.Tree, c *Cache, f Fetcher, warn io.Writer) (map[string][]Record, error) {
	recs := make(map[string][]Record)
	holders := make(map[string][]*gentree.Node)

	var err error
	t.DepthFirst(func(n *gentree.Node) {
		if err != nil {
			return
		}
		if n.IsTerm() || n.Name == "" {
			return
		}
		if !topology.IsAnchor(n.Name) {
			return
		}

		if hs, ok := holders[n.Name]; ok {
			for _, h := range hs {
				if isDescendant(n, h) {
					n.Name = ""
					return
				}
			}
			holders[n.Name] = append(holders[n.Name], n)
			return
		}
		holders[n.Name] = []*gentree.Node{n}

		tax := n.Name
		if c.Has(tax) {
			r, e := c.Records(tax)
			if e != nil {
				err = e
				return
			}
			if len(r) > 0 {
				recs[tax] = r
			}
			return
		}
		if f == nil {
			return
		}
		r, e := f.Fetch(tax)
		if e != nil {
			fmt.Fprintf(warn, "WARNING: taxon %q: fetch failed: %v\n", tax, e)
			return
		}
		if e := c.Store(tax, r); e != nil {
			err = e
			return
		}
		if len(r) > 0 {
			recs[tax] = r
		}
	}, nil)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func isDescendant(n, anc *gentree.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

// Map assigns fossil calibrations
// to the speciation nodes of a tree.
//
// Only internal nodes not flagged as duplications
// are eligible.
// Stem calibrations are not supported
// and are skipped with a warning.
// When a taxon label matches several paralogous nodes
// each crown fossil is cloned once per node
// and both the clones and the nodes
// are renamed with matching instance suffixes
// ("Homininae_1", "Homininae_2", ...),
// so downstream steps can align them positionally.
// Fossils without a node,
// and calibration-eligible nodes without a fossil,
// are dropped with a warning.
//
// The returned records are the calibrations to apply,
// sorted by taxon and record id.
func Map(t *gentree.Tree, recs map[string][]Record, warn io.Writer) []Record {
	nodes := make(map[string][]*gentree.Node)
	t.DepthFirst(func(n *gentree.Node) {
		if n.IsTerm() || n.Name == "" || n.IsDup {
			return
		}
		nodes[n.Name] = append(nodes[n.Name], n)
	}, nil)

	taxa := make([]string, 0, len(recs))
	for tax := range recs {
		taxa = append(taxa, tax)
	}
	slices.Sort(taxa)

	var mapped []Record
	for _, tax := range taxa {
		crown := make([]Record, 0, len(recs[tax]))
		for _, rec := range recs[tax] {
			if rec.Placement != Crown {
				fmt.Fprintf(warn, "WARNING: fossil %q: taxon %q: %s calibrations not supported\n", rec.ID, tax, rec.Placement)
				continue
			}
			crown = append(crown, rec)
		}
		if len(crown) == 0 {
			continue
		}

		ns := nodes[tax]
		if len(ns) == 0 {
			fmt.Fprintf(warn, "WARNING: taxon %q: no speciation node for fossil calibration\n", tax)
			continue
		}
		if len(ns) == 1 {
			mapped = append(mapped, crown...)
			continue
		}

		// paralog fan-out
		for i, n := range ns {
			name := fmt.Sprintf("%s_%d", tax, i+1)
			n.Name = name
			for _, rec := range crown {
				cp := rec
				cp.Taxon = name
				mapped = append(mapped, cp)
			}
		}
	}

	for _, tax := range sortedLabels(nodes) {
		if _, ok := recs[tax]; ok {
			continue
		}
		if len(nodes[tax]) == 0 {
			continue
		}
		fmt.Fprintf(warn, "WARNING: node %q: no fossil calibration\n", tax)
	}

	slices.SortFunc(mapped, func(a, b Record) int {
		if c := strings.Compare(a.Taxon, b.Taxon); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return mapped
}

func sortedLabels(nodes map[string][]*gentree.Node) []string {
	labels := make([]string, 0, len(nodes))
	for l := range nodes {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}
