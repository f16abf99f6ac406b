// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add gene family trees
// to a DupRates project.
package add

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: `add [-f|--file <tree-file>]
	[--name <name>]
	<project-file> [<newick-file>...]`,
	Short: "add gene family trees to a DupRates project",
	Long: `
Command add reads one or more gene family trees from newick files and adds
them to a DupRates project. The trees are expected to have branch lengths in
substitutions per site, and can carry NHX comments flagging gene duplication
nodes ("[&&NHX:D=Y]").

The first argument of the command is the name of the project file. If no
project file exists, a new project will be created.

One or more newick files can be given as arguments. If no file is given the
trees will be read from the standard input. Each file must contain a single
tree. By default, the family name of each tree is the name of its file
without the extension; use the flag --name to set an explicit name (valid
only for a single input file).

By default the trees will be stored in the tree file currently defined for
the project. If the project does not have a tree file, a new one will be
created with the name 'gene-trees.tab'. A different tree file name can be
defined using the flag --file, or -f. If this flag is used, and there is a
tree file already defined, then a new file with that name will be created,
and used as the tree file for the project (previously defined trees will be
kept).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var treeFile string
var famName string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeFile, "file", "", "")
	c.Flags().StringVar(&treeFile, "f", "", "")
	c.Flags().StringVar(&famName, "name", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	pFile := args[0]
	p, err := openProject(pFile)
	if err != nil {
		return err
	}

	tc := gentree.NewCollection()
	if tf := p.Path(project.GeneTrees); tf != "" {
		tc, err = readTreeFile(tf)
		if err != nil {
			return fmt.Errorf("on project %q: %v", tf, err)
		}
	}

	args = args[1:]
	if len(args) == 0 {
		args = append(args, "-")
	}
	if famName != "" && len(args) > 1 {
		return c.UsageError("flag --name is valid with a single tree file")
	}

	for _, a := range args {
		name := famName
		var r io.Reader
		if a == "-" {
			r = c.Stdin()
			a = "stdin"
			if name == "" {
				name = "stdin"
			}
		} else {
			f, err := os.Open(a)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
			}
		}

		t, err := gentree.Parse(r, name)
		if err != nil {
			return fmt.Errorf("while reading file %q: %v", a, err)
		}
		if err := tc.Add(t); err != nil {
			return fmt.Errorf("when adding trees from %q: %v", a, err)
		}
	}

	if treeFile == "" {
		treeFile = p.Path(project.GeneTrees)
		if treeFile == "" {
			treeFile = "gene-trees.tab"
		}
	}

	if err := writeTrees(tc); err != nil {
		return err
	}
	p.Add(project.GeneTrees, treeFile)
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

func readTreeFile(name string) (*gentree.Collection, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := gentree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return c, nil
}

func writeTrees(tc *gentree.Collection) (err error) {
	f, err := os.Create(treeFile)
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
		return fmt.Errorf("while writing to %q: %v", treeFile, err)
	}
	return nil
}
