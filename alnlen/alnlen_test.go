// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package alnlen_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/duprates/alnlen"
)

func TestRead(t *testing.T) {
	data := "# alignment lengths\nfamily\tsites\nfam-6722\t1359\nfam-8990\t822\n"
	ls, err := alnlen.Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}

	want := alnlen.Lengths{
		"fam-6722": 1359,
		"fam-8990": 822,
	}
	if !reflect.DeepEqual(ls, want) {
		t.Errorf("lengths: got %v, want %v", ls, want)
	}

	var b strings.Builder
	if err := ls.TSV(&b); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}
	nl, err := alnlen.Read(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	if !reflect.DeepEqual(nl, want) {
		t.Errorf("lengths: got %v, want %v", nl, want)
	}
}

func TestReadError(t *testing.T) {
	bad := []string{
		"family\tlength\nfam-6722\t1359\n",
		"family\tsites\nfam-6722\tnone\n",
		"family\tsites\nfam-6722\t0\n",
		"family\tsites\nfam-6722\t-10\n",
	}
	for _, data := range bad {
		if _, err := alnlen.Read(strings.NewReader(data)); err == nil {
			t.Errorf("read %q: expecting error", data)
		}
	}
}
