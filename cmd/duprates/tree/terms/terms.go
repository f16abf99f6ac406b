// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package terms implements a command to print
// the list of the terminals in the trees of a DupRates project.
package terms

import (
	"fmt"
	"slices"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: "terms [--family <name>] <project-file>",
	Short: "print a list of tree terminals",
	Long: `
Command terms reads the gene trees from a DupRates project and prints the
name of the terminals in the standard output.

The argument of the command is the name of the project file.

By default all terminals will be printed. If the flag --family is set, only
the terminals of the indicated gene family will be printed.
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

	ls := tc.Names()
	if famName != "" {
		ls = []string{famName}
	}

	terms := make(map[string]bool)
	for _, tn := range ls {
		t := tc.Tree(tn)
		if t == nil {
			continue
		}
		for _, tax := range t.TermNames() {
			terms[tax] = true
		}
	}

	termList := make([]string, 0, len(terms))
	for tax := range terms {
		termList = append(termList, tax)
	}
	slices.Sort(termList)

	for _, term := range termList {
		fmt.Fprintf(c.Stdout(), "%s\n", term)
	}
	return nil
}
