// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package lengths implements a command to add
// alignment lengths to a DupRates project.
package lengths

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/alnlen"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: `lengths [-f|--file <lengths-file>]
	<project-file> [<input-file>...]`,
	Short: "add alignment lengths to a DupRates project",
	Long: `
Command lengths reads one or more TSV files with the alignment length of each
gene family and adds them to a DupRates project. The calibration program
needs the number of sites of the alignment used to estimate each gene tree;
a family without a length cannot be calibrated.

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

One or more input files can be given as arguments. If no file is given the
lengths will be read from the standard input. Each file is a TSV file with
the fields "family" and "sites". A length given for a family that already
has one replaces the stored value.

By default the lengths will be stored in the length file currently defined
for the project. If the project does not have a length file, a new one will
be created with the name 'aln-lengths.tab'. A different file name can be
defined with the flag --file, or -f.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var lenFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&lenFile, "file", "", "")
	c.Flags().StringVar(&lenFile, "f", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := openProject(args[0])
	if err != nil {
		return err
	}

	ls := make(alnlen.Lengths)
	if lf := p.Path(project.Lengths); lf != "" {
		ls, err = readLengths(lf)
		if err != nil {
			return err
		}
	}

	args = args[1:]
	if len(args) == 0 {
		args = append(args, "-")
	}
	for _, a := range args {
		var r io.Reader
		if a == "-" {
			r = c.Stdin()
			a = "stdin"
		} else {
			f, err := os.Open(a)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		nl, err := alnlen.Read(r)
		if err != nil {
			return fmt.Errorf("while reading file %q: %v", a, err)
		}
		for fam, sites := range nl {
			ls[fam] = sites
		}
	}

	if lenFile == "" {
		lenFile = p.Path(project.Lengths)
		if lenFile == "" {
			lenFile = "aln-lengths.tab"
		}
	}

	if err := writeLengths(ls); err != nil {
		return err
	}
	p.Add(project.Lengths, lenFile)
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func openProject(name string) (*project.Project, error) {
	p, err := project.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		p := project.New()
		p.SetName(name)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	return p, nil
}

func readLengths(name string) (alnlen.Lengths, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ls, err := alnlen.Read(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return ls, nil
}

func writeLengths(ls alnlen.Lengths) (err error) {
	f, err := os.Create(lenFile)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := ls.TSV(f); err != nil {
		return fmt.Errorf("while writing to %q: %v", lenFile, err)
	}
	return nil
}
