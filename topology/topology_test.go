// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package topology_test

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/topology"
)

func TestLabels(t *testing.T) {
	anchors := map[string]bool{
		"":             false,
		"Homininae":    true,
		"Homininae_2":  false,
		"Homo_sapiens": true,
	}
	for label, want := range anchors {
		if got := topology.IsAnchor(label); got != want {
			t.Errorf("anchor %q: got %v, want %v", label, got, want)
		}
	}

	bases := map[string]string{
		"Homininae_2":  "Homininae",
		"Homininae":    "Homininae",
		"Homo_sapiens": "Homo_sapiens",
	}
	for label, want := range bases {
		if got := topology.BaseLabel(label); got != want {
			t.Errorf("base label %q: got %q, want %q", label, got, want)
		}
	}
}

func TestHash(t *testing.T) {
	h1 := topology.Hash([]string{"a", "b", "c"})
	h2 := topology.Hash([]string{"c", "a", "b"})
	if h1 != h2 {
		t.Errorf("hash: got %q and %q for the same terminal set", h1, h2)
	}

	h3 := topology.Hash([]string{"a", "b"})
	if h1 == h3 {
		t.Errorf("hash: equal hash %q for different terminal sets", h1)
	}
}

func TestIndex(t *testing.T) {
	// the same splits with rotated children
	t1, err := gentree.Parse(strings.NewReader("((a:1.0,b:2.0)hom:1.0,c:3.0)cat;"), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}
	t2, err := gentree.Parse(strings.NewReader("(c:30.0,(b:20.0,a:10.0)hom:10.0)cat;"), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	nodes := make(map[string][]*gentree.Node)
	topology.Index(t1, nodes)
	topology.Index(t2, nodes)

	inner := topology.Hash([]string{"a", "b"})
	full := topology.Hash([]string{"a", "b", "c"})
	if len(nodes) != 2 {
		t.Fatalf("buckets: got %d, want 2", len(nodes))
	}
	if b := nodes[inner]; len(b) != 2 {
		t.Fatalf("bucket %q: got %d nodes, want 2", "hom", len(b))
	}
	if b := nodes[full]; len(b) != 2 {
		t.Fatalf("bucket %q: got %d nodes, want 2", "cat", len(b))
	}

	// buckets keep the indexing order
	b := nodes[inner]
	if math.Abs(b[0].DistRoot-1.0) > 1e-10 {
		t.Errorf("node %q: root distance: got %.6f, want %.6f", b[0].Name, b[0].DistRoot, 1.0)
	}
	if math.Abs(b[1].DistRoot-10.0) > 1e-10 {
		t.Errorf("node %q: root distance: got %.6f, want %.6f", b[1].Name, b[1].DistRoot, 10.0)
	}

	want := []string{"a", "b"}
	if !reflect.DeepEqual(b[0].TipSet, want) {
		t.Errorf("node %q: terminal set: got %v, want %v", b[0].Name, b[0].TipSet, want)
	}
	if !reflect.DeepEqual(b[1].TipSet, want) {
		t.Errorf("node %q: terminal set: got %v, want %v", b[1].Name, b[1].TipSet, want)
	}

	terms := t1.Terms()
	for _, n := range terms {
		if n.Hash == "" {
			t.Errorf("terminal %q: hash not set", n.Name)
		}
	}
}

func TestIndexSuffix(t *testing.T) {
	// suffixed labels are annotated but not bucketed
	tr, err := gentree.Parse(strings.NewReader("((a:1.0,b:2.0)hom_1:1.0,(c:1.0,d:2.0)hom_2:1.0)cat;"), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	nodes := make(map[string][]*gentree.Node)
	topology.Index(tr, nodes)

	if len(nodes) != 1 {
		t.Fatalf("buckets: got %d, want 1", len(nodes))
	}
	full := topology.Hash([]string{"a", "b", "c", "d"})
	if b := nodes[full]; len(b) != 1 || b[0].Name != "cat" {
		t.Errorf("bucket %q: got %v", "cat", b)
	}
}
