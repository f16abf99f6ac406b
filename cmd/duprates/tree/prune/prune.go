// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prune implements a command to remove
// terminals with aberrant branch lengths
// from the gene trees of a DupRates project.
package prune

import (
	"errors"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/outlier"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: "prune [--dev <value>] <project-file>",
	Short: "remove terminals with outlier branch lengths",
	Long: `
Command prune reads the gene trees from a DupRates project and removes the
terminals whose branch length is too far from the mean terminal branch
length of their tree. Statistics are recomputed after each removal pass, and
pruning repeats until no terminal is flagged.

The argument of the command is the name of the project file.

By default, a terminal branch is an outlier if it is more than 8 standard
deviations away from the mean. Use the flag --dev to set a different number
of deviations.

A tree in which every terminal ends flagged as an outlier is left untouched,
and reported with a warning.

The pruned trees replace the tree file of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var devFlag float64

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&devFlag, "dev", outlier.DefaultDeviations, "")
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

	for _, tn := range tc.Names() {
		t := tc.Tree(tn)
		n, err := outlier.Prune(t, devFlag)
		if err != nil {
			if errors.Is(err, gentree.ErrCollapsed) {
				fmt.Fprintf(c.Stderr(), "WARNING: %v\n", err)
				continue
			}
			return err
		}
		if n > 0 {
			fmt.Fprintf(c.Stderr(), "family %q: %d terminals pruned\n", tn, n)
		}
	}

	tf := p.Path(project.GeneTrees)
	if err := writeTrees(tc, tf); err != nil {
		return err
	}
	return nil
}

func writeTrees(tc *gentree.Collection, name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := tc.TSV(f); err != nil {
		return fmt.Errorf("while writing to %q: %v", name, err)
	}
	return nil
}
