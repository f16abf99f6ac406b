// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package outlier_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/outlier"
)

func TestPrune(t *testing.T) {
	// terminal x is two orders of magnitude
	// longer than its siblings
	nw := "(((a:0.1,b:0.1):0.1,(c:0.1,d:0.1):0.1):0.1,(e:0.1,x:10.0):0.1)root;"
	tr, err := gentree.Parse(strings.NewReader(nw), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	removed, err := outlier.Prune(tr, 2)
	if err != nil {
		t.Fatalf("prune: unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}

	want := []string{"a", "b", "c", "d", "e"}
	if got := tr.TermNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("terminals: got %v, want %v", got, want)
	}

	// a second pass must be a no-op
	removed, err = outlier.Prune(tr, 2)
	if err != nil {
		t.Fatalf("prune: unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed on second pass: got %d, want 0", removed)
	}
}

func TestPruneSmall(t *testing.T) {
	// a tree with less than three terminals
	// is left untouched
	nw := "(a:0.1,x:10.0)root;"
	tr, err := gentree.Parse(strings.NewReader(nw), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	removed, err := outlier.Prune(tr, 2)
	if err != nil {
		t.Fatalf("prune: unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed: got %d, want 0", removed)
	}
	want := []string{"a", "x"}
	if got := tr.TermNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("terminals: got %v, want %v", got, want)
	}
}

func TestPruneCollapse(t *testing.T) {
	// with a tight threshold every terminal is flagged
	nw := "((a:1.0,b:1.0):0.5,(c:3.0,d:3.0):0.5)root;"
	tr, err := gentree.Parse(strings.NewReader(nw), "fam")
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	_, err = outlier.Prune(tr, 0.1)
	if !errors.Is(err, gentree.ErrCollapsed) {
		t.Errorf("prune: got error %v, want %v", err, gentree.ErrCollapsed)
	}
}
