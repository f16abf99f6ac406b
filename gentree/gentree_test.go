// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gentree_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/duprates/gentree"
)

func TestParse(t *testing.T) {
	nw := "((Homo_sapiens:0.017,Pan_troglodytes:0.013):0.005[&&NHX:D=Y:B=95],Gorilla_gorilla:0.02)Homininae;"

	tr, err := gentree.Parse(strings.NewReader(nw), "fam-6722")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}
	if tr.Name() != "fam-6722" {
		t.Errorf("tree name: got %q, want %q", tr.Name(), "fam-6722")
	}

	terms := tr.TermNames()
	want := []string{"Gorilla_gorilla", "Homo_sapiens", "Pan_troglodytes"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("terminals: got %v, want %v", terms, want)
	}

	root := tr.Root()
	if root.Name != "Homininae" {
		t.Errorf("root label: got %q, want %q", root.Name, "Homininae")
	}
	if len(root.Children) != 2 {
		t.Fatalf("root children: got %d, want 2", len(root.Children))
	}

	dup := root.Children[0]
	if !dup.IsDup {
		t.Errorf("node %q: duplication flag not set", dup.Name)
	}
	if math.Abs(dup.Len-0.005) > 1e-10 {
		t.Errorf("node length: got %.6f, want %.6f", dup.Len, 0.005)
	}
	if v := dup.Attr["B"]; v != "95" {
		t.Errorf("node attribute B: got %q, want %q", v, "95")
	}
	if root.IsDup {
		t.Errorf("root: unexpected duplication flag")
	}
}

func TestParseError(t *testing.T) {
	bad := []string{
		"",
		"Homo_sapiens:0.017;",
		"(Homo_sapiens:0.017,Pan_troglodytes:0.013)",
		"(Homo_sapiens:-0.017,Pan_troglodytes:0.013);",
		"(:0.017,Pan_troglodytes:0.013);",
		"();",
	}
	for _, nw := range bad {
		if _, err := gentree.Parse(strings.NewReader(nw), "bad"); err == nil {
			t.Errorf("parse %q: expecting error", nw)
		}
	}
}

func TestNewick(t *testing.T) {
	nw := "((Homo_sapiens:0.017,Pan_troglodytes:0.013)hom_1:0.005[&&NHX:D=Y],Gorilla_gorilla:0.02)Homininae;"

	tr, err := gentree.Parse(strings.NewReader(nw), "fam-6722")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	var b strings.Builder
	if err := tr.Newick(&b); err != nil {
		t.Fatalf("newick: unexpected error: %v", err)
	}
	if got := strings.TrimSpace(b.String()); got != nw {
		t.Errorf("newick:\ngot  %s\nwant %s", got, nw)
	}
}

func TestPruneTerms(t *testing.T) {
	nw := "(((a:1.0,b:1.0):1.0,c:1.0):1.0,d:1.0)root;"
	tr, err := gentree.Parse(strings.NewReader(nw), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	del := make(map[*gentree.Node]bool)
	for _, n := range tr.Terms() {
		if n.Name == "a" || n.Name == "b" {
			del[n] = true
		}
	}
	if err := tr.PruneTerms(del); err != nil {
		t.Fatalf("prune: unexpected error: %v", err)
	}

	want := []string{"c", "d"}
	if got := tr.TermNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("terminals after pruning: got %v, want %v", got, want)
	}

	// the empty ancestor of a and b must be gone
	tr.DepthFirst(func(n *gentree.Node) {
		if !n.IsTerm() && len(n.Children) == 0 {
			t.Errorf("internal node without children left after pruning")
		}
	}, nil)
}

func TestPruneCollapse(t *testing.T) {
	nw := "((a:1.0,b:1.0):1.0,c:1.0)root;"
	tr, err := gentree.Parse(strings.NewReader(nw), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	del := make(map[*gentree.Node]bool)
	for _, n := range tr.Terms() {
		del[n] = true
	}
	err = tr.PruneTerms(del)
	if !errors.Is(err, gentree.ErrCollapsed) {
		t.Errorf("prune: got error %v, want %v", err, gentree.ErrCollapsed)
	}
}

func TestCollection(t *testing.T) {
	trees := map[string]string{
		"fam-6722": "((Homo_sapiens:0.017,Pan_troglodytes:0.013):0.041,Macaca_mulatta:0.096)Catarrhini;",
		"fam-8990": "((a:1.0,b:2.0)x_1:0.5[&&NHX:D=Y],c:3.0)Sarcopterygii;",
	}

	c := gentree.NewCollection()
	for name, nw := range trees {
		tr, err := gentree.Parse(strings.NewReader(nw), name)
		if err != nil {
			t.Fatalf("tree %q: unexpected error: %v", name, err)
		}
		if err := c.Add(tr); err != nil {
			t.Fatalf("tree %q: unexpected error: %v", name, err)
		}
	}

	want := []string{"fam-6722", "fam-8990"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names: got %v, want %v", got, want)
	}

	tr := c.Tree("fam-6722")
	if err := c.Add(tr); err == nil {
		t.Errorf("adding a repeated tree: expecting error")
	}

	var b strings.Builder
	if err := c.TSV(&b); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}
	nc, err := gentree.ReadTSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	if got := nc.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names: got %v, want %v", got, want)
	}
	for _, name := range want {
		var ob, nb strings.Builder
		if err := c.Tree(name).Newick(&ob); err != nil {
			t.Fatalf("tree %q: unexpected error: %v", name, err)
		}
		if err := nc.Tree(name).Newick(&nb); err != nil {
			t.Fatalf("tree %q: unexpected error: %v", name, err)
		}
		if nb.String() != ob.String() {
			t.Errorf("tree %q:\ngot  %s\nwant %s", name, nb.String(), ob.String())
		}
	}
}
