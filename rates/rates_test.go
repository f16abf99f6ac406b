// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package rates_test

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/rates"
	"github.com/js-arias/duprates/topology"
)

// The same topology with branch lengths
// in time, rate, and substitution units,
// with a duplication nested inside another.
var testTrees = []string{
	"(((a:2.0,b:2.0)beta:3.0,c:5.0):5.0,d:10.0)alpha;",
	"(((a:0.01,b:0.01)beta:0.02,c:0.03):0.04,d:0.05)alpha;",
	"(((a:0.1,b:0.1)beta:0.2,c:0.5):0.4,d:0.9)alpha;",
}

func indexTrees(t testing.TB) map[string][]*gentree.Node {
	t.Helper()

	nodes := make(map[string][]*gentree.Node)
	for _, nw := range testTrees {
		tr, err := gentree.Parse(strings.NewReader(nw), "fam")
		if err != nil {
			t.Fatalf("parse: unexpected error: %v", err)
		}
		topology.Index(tr, nodes)
	}
	return nodes
}

func TestWalk(t *testing.T) {
	nodes := indexTrees(t)

	alpha := nodes[topology.Hash([]string{"a", "b", "c", "d"})]
	if len(alpha) != 3 {
		t.Fatalf("taxon %q: found on %d trees, want 3", "alpha", len(alpha))
	}

	rows, err := rates.Walk("fam", alpha[0], alpha[1], alpha[2])
	if err != nil {
		t.Fatalf("walk: unexpected error: %v", err)
	}

	// the walk stops at the nested duplication,
	// so only the origin and the unnamed split are reported
	want := []rates.Record{
		{Family: "fam", Taxon: "alpha", Distance: 0, Rate: 0},
		{Family: "fam", Taxon: "alpha", Distance: 5, Rate: 0.04},
	}
	cmpRecords(t, rows, want)

	for _, r := range rows {
		if r.Tips != 4 {
			t.Errorf("taxon %q: tips: got %d, want 4", r.Taxon, r.Tips)
		}
		// phylogram heights: 0.7, 0.7, 0.9, 0.9
		if math.Abs(r.MeanHeight-0.8) > 1e-10 {
			t.Errorf("taxon %q: mean height: got %.6f, want %.6f", r.Taxon, r.MeanHeight, 0.8)
		}
		if r.Hash != alpha[0].Hash {
			t.Errorf("taxon %q: hash: got %q, want %q", r.Taxon, r.Hash, alpha[0].Hash)
		}
	}
}

func TestWalkSingle(t *testing.T) {
	// a single duplication node over four tips
	// must yield one row per internal branch,
	// that is tips-1 rows,
	// with distances growing away from the duplication
	nodes := make(map[string][]*gentree.Node)
	for _, nw := range []string{
		"((a:2.0,b:2.0):3.0,(c:1.0,d:1.0):4.0)alpha;",
		"((a:0.01,b:0.01):0.02,(c:0.01,d:0.01):0.03)alpha;",
		"((a:0.1,b:0.1):0.2,(c:0.1,d:0.1):0.3)alpha;",
	} {
		tr, err := gentree.Parse(strings.NewReader(nw), "fam")
		if err != nil {
			t.Fatalf("parse: unexpected error: %v", err)
		}
		topology.Index(tr, nodes)
	}

	alpha := nodes[topology.Hash([]string{"a", "b", "c", "d"})]
	if len(alpha) != 3 {
		t.Fatalf("taxon %q: found on %d trees, want 3", "alpha", len(alpha))
	}

	rows, err := rates.Walk("fam", alpha[0], alpha[1], alpha[2])
	if err != nil {
		t.Fatalf("walk: unexpected error: %v", err)
	}

	want := []rates.Record{
		{Family: "fam", Taxon: "alpha", Distance: 0, Rate: 0},
		{Family: "fam", Taxon: "alpha", Distance: 3, Rate: 0.02},
		{Family: "fam", Taxon: "alpha", Distance: 4, Rate: 0.03},
	}
	cmpRecords(t, rows, want)

	// one row per internal branch
	if len(rows) != 4-1 {
		t.Errorf("records: got %d, want %d", len(rows), 4-1)
	}
	for i, r := range rows[1:] {
		if r.Distance <= rows[0].Distance {
			t.Errorf("record %d: distance %.6f not greater than its origin", i+1, r.Distance)
		}
	}
	for _, r := range rows {
		if r.Tips != 4 {
			t.Errorf("taxon %q: tips: got %d, want 4", r.Taxon, r.Tips)
		}
		// phylogram heights: 0.3, 0.3, 0.4, 0.4
		if math.Abs(r.MeanHeight-0.35) > 1e-10 {
			t.Errorf("taxon %q: mean height: got %.6f, want %.6f", r.Taxon, r.MeanHeight, 0.35)
		}
	}
}

func TestWalkNested(t *testing.T) {
	nodes := indexTrees(t)

	beta := nodes[topology.Hash([]string{"a", "b"})]
	if len(beta) != 3 {
		t.Fatalf("taxon %q: found on %d trees, want 3", "beta", len(beta))
	}

	rows, err := rates.Walk("fam", beta[0], beta[1], beta[2])
	if err != nil {
		t.Fatalf("walk: unexpected error: %v", err)
	}

	want := []rates.Record{
		{Family: "fam", Taxon: "beta", Distance: 0, Rate: 0.02},
	}
	cmpRecords(t, rows, want)

	if rows[0].Tips != 2 {
		t.Errorf("taxon %q: tips: got %d, want 2", "beta", rows[0].Tips)
	}
	if math.Abs(rows[0].MeanHeight-0.1) > 1e-10 {
		t.Errorf("taxon %q: mean height: got %.6f, want %.6f", "beta", rows[0].MeanHeight, 0.1)
	}
}

func TestWalkPair(t *testing.T) {
	nodes := indexTrees(t)
	beta := nodes[topology.Hash([]string{"a", "b"})]

	rows, err := rates.WalkPair("fam", beta[0], beta[1])
	if err != nil {
		t.Fatalf("walk: unexpected error: %v", err)
	}
	want := []rates.Record{
		{Family: "fam", Taxon: "beta", Distance: 0, Rate: 0.02},
	}
	cmpRecords(t, rows, want)
	if rows[0].Tips != 0 {
		t.Errorf("taxon %q: tips: got %d, want 0", "beta", rows[0].Tips)
	}
}

func TestWalkMismatch(t *testing.T) {
	nodes := make(map[string][]*gentree.Node)
	for _, nw := range []string{
		"((a:1.0,b:1.0):1.0,c:2.0)alpha;",
		"((a:1.0,b:1.0,c:1.0):1.0,d:2.0)alpha;",
	} {
		tr, err := gentree.Parse(strings.NewReader(nw), "fam")
		if err != nil {
			t.Fatalf("parse: unexpected error: %v", err)
		}
		topology.Index(tr, nodes)
	}

	var roots []*gentree.Node
	for _, b := range nodes {
		for _, n := range b {
			if n.Name == "alpha" {
				roots = append(roots, n)
			}
		}
	}
	if len(roots) != 2 {
		t.Fatalf("roots: got %d, want 2", len(roots))
	}
	if _, err := rates.WalkPair("fam", roots[0], roots[1]); err == nil {
		t.Errorf("walk: expecting error on inconsistent topologies")
	}
}

func cmpRecords(t testing.TB, rows, want []rates.Record) {
	t.Helper()

	if len(rows) != len(want) {
		t.Fatalf("records: got %d, want %d", len(rows), len(want))
	}
	for i, r := range rows {
		w := want[i]
		if r.Family != w.Family || r.Taxon != w.Taxon {
			t.Errorf("record %d: got %q %q, want %q %q", i, r.Family, r.Taxon, w.Family, w.Taxon)
		}
		if math.Abs(r.Distance-w.Distance) > 1e-10 {
			t.Errorf("record %d: distance: got %.6f, want %.6f", i, r.Distance, w.Distance)
		}
		if math.Abs(r.Rate-w.Rate) > 1e-10 {
			t.Errorf("record %d: rate: got %.6f, want %.6f", i, r.Rate, w.Rate)
		}
	}
}

func TestTSV(t *testing.T) {
	recs := []rates.Record{
		{
			Family:     "fam-6722",
			Taxon:      "Homininae_1",
			Distance:   2.5,
			Rate:       0.0125,
			Hash:       "f10e2821bbbea527ea02200352313bc059445190",
			Tips:       4,
			MeanHeight: 0.25,
		},
		{
			Family:   "fam-6722",
			Taxon:    "Homininae_1",
			Distance: 5,
			Rate:     0.002,
			Hash:     "f10e2821bbbea527ea02200352313bc059445190",
			Tips:     4, MeanHeight: 0.25,
		},
	}

	var b strings.Builder
	if err := rates.WriteTSV(&b, recs); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}
	got, err := rates.ReadTSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	if !reflect.DeepEqual(got, recs) {
		t.Errorf("records: got %v, want %v", got, recs)
	}

	// the two-tree column subset
	b.Reset()
	if err := rates.WritePairTSV(&b, recs); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}
	got, err = rates.ReadTSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	for i, r := range got {
		if r.Tips != 0 || r.MeanHeight != 0 {
			t.Errorf("record %d: unexpected tips or mean height: %v", i, r)
		}
		if r.Taxon != recs[i].Taxon || math.Abs(r.Rate-recs[i].Rate) > 1e-10 {
			t.Errorf("record %d: got %v, want %v", i, r, recs[i])
		}
	}
}
