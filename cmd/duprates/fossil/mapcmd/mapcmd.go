// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mapcmd implements a command to map
// the cached fossil calibrations
// into the speciation nodes of the gene trees
// of a DupRates project.
package mapcmd

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/fossil"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: "map [--family <name>] <project-file>",
	Short: "map fossil calibrations to tree nodes",
	Long: `
Command map reads the gene trees of a DupRates project and the fossil
calibrations stored in its cache, maps each calibration to the speciation
nodes of the trees, and prints the resulting calibration set, as a TSV
table, in the standard output.

The argument of the command is the name of the project file.

By default all families are mapped. If the flag --family is set, only the
indicated family will be mapped.

Only crown calibrations on speciation nodes are used. When a taxon matches
several paralogous nodes of a tree, the calibration is cloned once per node
with instance-suffixed taxon names ("Homininae_1", "Homininae_2"). Fossils
without a matching node, and eligible nodes without a fossil, are reported
as warnings in the standard error.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var famName string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&famName, "family", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.GeneTrees()
	if err != nil {
		return err
	}

	cf := p.Path(project.Fossils)
	if cf == "" {
		return fmt.Errorf("fossil cache not defined in project %q", args[0])
	}
	cache, err := fossil.OpenCache(cf)
	if err != nil {
		return err
	}

	ls := tc.Names()
	if famName != "" {
		ls = []string{famName}
	}

	var mapped []fossil.Record
	for _, tn := range ls {
		t := tc.Tree(tn)
		if t == nil {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: tree not found\n", tn)
			continue
		}
		recs, err := fossil.Resolve(t, cache, nil, c.Stderr())
		if err != nil {
			return err
		}
		m := fossil.Map(t, recs, c.Stderr())
		if len(m) == 0 {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: no fossil calibration mapped\n", tn)
			continue
		}
		mapped = append(mapped, m...)
	}

	if err := fossil.WriteTSV(c.Stdout(), mapped); err != nil {
		return err
	}
	return nil
}
