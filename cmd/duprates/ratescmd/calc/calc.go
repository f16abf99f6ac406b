// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calc implements a command to build
// the post-duplication rate table
// from the calibrated trees of a DupRates project.
package calc

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/project"
	"github.com/js-arias/duprates/rates"
	"github.com/js-arias/duprates/topology"
)

var Command = &command.Command{
	Usage: `calc [--nophylo] [-f|--file <rates-file>]
	<project-file>`,
	Short: "build the post-duplication rate table",
	Long: `
Command calc reads the calibrated trees of a DupRates project, matches the
duplication nodes across the chronogram, ratogram, and phylogram of each
family, and walks the descendants of each duplication accumulating the time
distance and local substitution rate of every branch. The resulting table is
stored in the rates file of the project.

The argument of the command is the name of the project file.

Nodes are matched across trees by the hash of their terminal sets; a family
in which a duplication node is not found on all trees is reported with a
warning. A traversal stops when it reaches a nested duplication node, which
is walked independently, so no branch is counted twice.

If the flag --nophylo is set, only the chronogram and the ratogram are
compared, and the table is written without the tips and mean-height columns.

By default the table is stored in the rates file defined for the project, or
'rates.tab' if the project has none. A different file can be set with the
flag --file, or -f.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var noPhylo bool
var ratesFile string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&noPhylo, "nophylo", false, "")
	c.Flags().StringVar(&ratesFile, "file", "", "")
	c.Flags().StringVar(&ratesFile, "f", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	res, err := p.CalibratedTrees()
	if err != nil {
		return err
	}

	families := make([]string, 0, len(res))
	for fam := range res {
		families = append(families, fam)
	}
	slices.Sort(families)

	var rows []rates.Record
	for _, fam := range families {
		rs, err := familyRates(c, fam, res[fam].Chronogram, res[fam].Ratogram, res[fam].Phylogram)
		if err != nil {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v\n", fam, err)
			continue
		}
		rows = append(rows, rs...)
	}

	if ratesFile == "" {
		ratesFile = p.Path(project.Rates)
		if ratesFile == "" {
			ratesFile = "rates.tab"
		}
	}
	if err := writeRates(rows); err != nil {
		return err
	}
	p.Add(project.Rates, ratesFile)
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

// FamilyRates indexes the calibrated trees of a family
// in a fixed order
// (chronogram, then ratogram, then phylogram)
// and walks every duplication node
// found on all the trees.
func familyRates(c *command.Command, fam, chrono, rato, phylo string) ([]rates.Record, error) {
	want := 3
	if noPhylo {
		want = 2
		phylo = ""
	}

	nodes := make(map[string][]*gentree.Node)
	for _, tv := range []struct{ analysis, nw string }{
		{"chronogram", chrono},
		{"ratogram", rato},
		{"phylogram", phylo},
	} {
		if tv.nw == "" {
			if tv.analysis == "phylogram" && noPhylo {
				continue
			}
			return nil, fmt.Errorf("no %s", tv.analysis)
		}
		t, err := gentree.Parse(strings.NewReader(tv.nw), fam)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", tv.analysis, err)
		}
		topology.Index(t, nodes)
	}

	hashes := make([]string, 0, len(nodes))
	for h := range nodes {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)

	var rows []rates.Record
	for _, h := range hashes {
		b := nodes[h]
		if len(b) != want {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: taxon %q: found on %d of %d trees\n", fam, b[0].Name, len(b), want)
			continue
		}
		var rs []rates.Record
		var err error
		if noPhylo {
			rs, err = rates.WalkPair(fam, b[0], b[1])
		} else {
			rs, err = rates.Walk(fam, b[0], b[1], b[2])
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rs...)
	}
	return rows, nil
}

func writeRates(rows []rates.Record) (err error) {
	f, err := os.Create(ratesFile)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if noPhylo {
		err = rates.WritePairTSV(f, rows)
	} else {
		err = rates.WriteTSV(f, rows)
	}
	if err != nil {
		return fmt.Errorf("while writing to %q: %v", ratesFile, err)
	}
	return nil
}
