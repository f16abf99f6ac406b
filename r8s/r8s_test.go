// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package r8s_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"text/template"

	"github.com/js-arias/duprates/fossil"
	"github.com/js-arias/duprates/r8s"
)

var testOutput = `
r8s version 1.81

Reading tree fam-6722...

Optimization with Powell method
[!] starting optimization 1

Gradient check PASSED

tree fam-6722_rato = ((a:0.01,b:0.02):0.03,c:0.04);
tree fam-6722_chrono = ((a:5,b:5):5,c:10);
tree fam-6722_phylo = ((a:0.1,b:0.1):0.2,c:0.4);
`

func TestParseOutput(t *testing.T) {
	res, err := r8s.ParseOutput(testOutput)
	if err != nil {
		t.Fatalf("parse: unexpected error: %v", err)
	}

	want := r8s.Result{
		Ratogram:   "((a:0.01,b:0.02):0.03,c:0.04);",
		Chronogram: "((a:5,b:5):5,c:10);",
		Phylogram:  "((a:0.1,b:0.1):0.2,c:0.4);",
	}
	if res != want {
		t.Errorf("result: got %v, want %v", res, want)
	}
}

func TestParseOutputNotPassed(t *testing.T) {
	out := strings.ReplaceAll(testOutput, "PASSED", "FAILED")
	_, err := r8s.ParseOutput(out)
	if !errors.Is(err, r8s.ErrNotPassed) {
		t.Errorf("parse: got error %v, want %v", err, r8s.ErrNotPassed)
	}
}

func TestParseOutputShort(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(testOutput), "\n")
	out := strings.Join(lines[:len(lines)-1], "\n")
	if _, err := r8s.ParseOutput(out); err == nil {
		t.Errorf("parse: expecting error on truncated output")
	}
}

func TestTrees(t *testing.T) {
	res := map[string]r8s.Result{
		"fam-6722": {
			Ratogram:   "((a:0.01,b:0.02):0.03,c:0.04);",
			Chronogram: "((a:5,b:5):5,c:10);",
			Phylogram:  "((a:0.1,b:0.1):0.2,c:0.4);",
		},
		"fam-8990": {
			Ratogram:   "(x:0.5,y:0.25);",
			Chronogram: "(x:1,y:1);",
			Phylogram:  "(x:0.5,y:0.25);",
		},
	}

	var b strings.Builder
	if err := r8s.WriteTrees(&b, res); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}
	got, err := r8s.ReadTrees(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	if !reflect.DeepEqual(got, res) {
		t.Errorf("trees: got %v, want %v", got, res)
	}
}

func TestCollapseFossils(t *testing.T) {
	recs := []fossil.Record{
		{ID: "pbdb:83453", Taxon: "Homininae", MinMa: 7.25, MaxMa: 10, Placement: fossil.Crown},
		{ID: "pbdb:10129", Taxon: "Catarrhini", MinMa: 24.44, MaxMa: 33.9, Placement: fossil.Crown},
		{ID: "pbdb:90211", Taxon: "Homininae", MinMa: 8.5, MaxMa: 9.5, Placement: fossil.Crown},
	}

	got := r8s.CollapseFossils(recs)
	want := []fossil.Record{
		{ID: "pbdb:83453", Taxon: "Homininae", MinMa: 8.5, MaxMa: 9.5, Placement: fossil.Crown},
		{ID: "pbdb:10129", Taxon: "Catarrhini", MinMa: 24.44, MaxMa: 33.9, Placement: fossil.Crown},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collapsed: got %v, want %v", got, want)
	}
}

func TestTemplate(t *testing.T) {
	in := r8s.Input{
		Family: "fam-6722",
		Newick: "((Homo_sapiens:0.017,Pan_troglodytes:0.013)Homininae:0.041,Macaca_mulatta:0.096);",
		AlnLen: 1359,
		Fossils: []fossil.Record{
			{
				ID:        "pbdb:83453",
				Taxon:     "Homininae",
				MinMa:     7.25,
				MaxMa:     10,
				Placement: fossil.Crown,
			},
		},
		MRCA: map[string][2]string{
			"Homininae": {"Homo_sapiens", "Pan_troglodytes"},
		},
	}

	tmpl, err := template.New("r8s").Parse(r8s.DefaultTemplate)
	if err != nil {
		t.Fatalf("template: unexpected error: %v", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, in); err != nil {
		t.Fatalf("template: unexpected error: %v", err)
	}
	cmd := b.String()

	for _, want := range []string{
		"#NEXUS",
		in.Newick,
		"nsites=1359",
		"mrca Homininae Homo_sapiens Pan_troglodytes;",
		"constrain taxon=Homininae min_age=7.25 max_age=10;",
		"describe plot=ratogram;",
		"describe plot=chronogram;",
		"describe plot=phylogram;",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command file: missing %q:\n%s", want, cmd)
		}
	}
}
