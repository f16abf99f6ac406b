// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package r8s drives the r8s divergence time estimation program
// as an external process.
//
// The program is treated as a black box:
// this package only builds its command file
// from a template,
// runs the binary,
// and scans the resulting log
// for the calibrated tree descriptions.
package r8s

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
	"time"

	"github.com/js-arias/duprates/fossil"
)

// ErrTool is wrapped by errors
// of the external program itself:
// a failed execution
// or an unreadable output.
var ErrTool = errors.New("r8s tool failure")

// An Input is the data required
// to build the command file
// for the calibration of a single gene family.
type Input struct {
	// Family is the gene family identifier.
	Family string

	// Newick is the gene tree in parenthetical format,
	// with the calibration and duplication node labels in place.
	Newick string

	// AlnLen is the length of the alignment,
	// in sites,
	// used to estimate the tree.
	AlnLen int

	// Fossils are the calibrations to enforce,
	// already mapped to node labels.
	Fossils []fossil.Record

	// MRCA relates each calibrated node label
	// to a pair of terminals
	// whose most recent common ancestor is the node.
	MRCA map[string][2]string
}

// DefaultTemplate is the default template
// for the r8s command file.
//
// The calibrated trees are requested in a fixed order
// (ratogram, chronogram, phylogram)
// that the output parser relies on.
const DefaultTemplate = `#NEXUS
begin trees;
tree {{.Family}} = {{.Newick}}
end;
begin rates;
blformat lengths=persite nsites={{.AlnLen}} ultrametric=no;
collapse;
{{range .Fossils}}mrca {{.Taxon}} {{index $.MRCA .Taxon 0}} {{index $.MRCA .Taxon 1}};
constrain taxon={{.Taxon}} min_age={{.MinMa}} max_age={{.MaxMa}};
{{end}}divtime method=pl algorithm=tn cvStart=0 cvInc=0.5 cvNum=8;
describe plot=ratogram;
describe plot=chronogram;
describe plot=phylogram;
end;
`

// A Runner invokes the r8s binary.
type Runner struct {
	// Path of the r8s binary.
	// If empty "r8s" is searched on the executable path.
	Path string

	// Template for the command file.
	// If nil DefaultTemplate is used.
	Template *template.Template

	// Timeout for a single run.
	// If zero the run is unbounded.
	Timeout time.Duration
}

// CollapseFossils merges the calibrations
// that constrain the same taxon
// into a single record with the tightest age bounds,
// so the command file gets one constraint per taxon.
// The order of first appearance is kept.
func CollapseFossils(recs []fossil.Record) []fossil.Record {
	out := make([]fossil.Record, 0, len(recs))
	idx := make(map[string]int, len(recs))
	for _, rec := range recs {
		p, ok := idx[rec.Taxon]
		if !ok {
			idx[rec.Taxon] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.MinMa > out[p].MinMa {
			out[p].MinMa = rec.MinMa
		}
		if rec.MaxMa < out[p].MaxMa {
			out[p].MaxMa = rec.MaxMa
		}
	}
	return out
}

// Run calibrates a single gene family,
// blocking until the program exits,
// and returns the combined output of the run.
// Calibrations of the same taxon are collapsed
// into a single constraint with the tightest bounds.
// Failures of the program itself
// are reported wrapping ErrTool.
func (r *Runner) Run(ctx context.Context, in Input) (string, error) {
	tmpl := r.Template
	if tmpl == nil {
		var err error
		tmpl, err = template.New("r8s").Parse(DefaultTemplate)
		if err != nil {
			return "", fmt.Errorf("family %q: default template: %v", in.Family, err)
		}
	}
	in.Fossils = CollapseFossils(in.Fossils)

	var cmd bytes.Buffer
	if err := tmpl.Execute(&cmd, in); err != nil {
		return "", fmt.Errorf("family %q: while building command file: %v", in.Family, err)
	}

	dir, err := os.MkdirTemp("", "duprates-r8s-")
	if err != nil {
		return "", fmt.Errorf("family %q: %v", in.Family, err)
	}
	defer os.RemoveAll(dir)

	name := filepath.Join(dir, in.Family+".r8s")
	if err := os.WriteFile(name, cmd.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("family %q: %v", in.Family, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	bin := r.Path
	if bin == "" {
		bin = "r8s"
	}
	out, err := exec.CommandContext(ctx, bin, "-b", "-f", name).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("family %q: %w: %v", in.Family, ErrTool, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("family %q: %w: empty output", in.Family, ErrTool)
	}
	return string(out), nil
}
