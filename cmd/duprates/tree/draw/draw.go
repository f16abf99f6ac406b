// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package draw implements a command to draw
// the calibrated chronograms of a DupRates project
// as SVG files.
package draw

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/project"
	"github.com/js-arias/duprates/topology"
)

var Command = &command.Command{
	Usage: `draw [--family <name>] [--step <value>]
	[--rates]
	[-o|--output <out-prefix>]
	<project-file>`,
	Short: "draw calibrated chronograms as SVG files",
	Long: `
Command draw reads the calibrated chronograms of a DupRates project and draws
each tree into an SVG-encoded file.

The argument of the command is the name of the project file.

By default, 10 pixel units will be used per million years; use the flag
--step to define a different value (it can have decimal points).

By default, all chronograms in the project will be drawn. If the flag
--family is set, only the chronogram of the indicated family will be drawn.

If the flag --rates is set, each branch will be colored by its local
substitution rate, taken from the ratogram of the family, from blue (slow)
to red (fast) on a log scale. Branches without a matching rate are drawn in
black.

By default, the family names will be used as the output file names. Use the
flag -o, or --output, to define a prefix for the resulting files.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var stepX float64
var useRates bool
var famName string
var outPrefix string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&stepX, "step", 10, "")
	c.Flags().BoolVar(&useRates, "rates", false, "")
	c.Flags().StringVar(&famName, "family", "", "")
	c.Flags().StringVar(&outPrefix, "output", "", "")
	c.Flags().StringVar(&outPrefix, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.Chronograms()
	if err != nil {
		return err
	}

	ls := tc.Names()
	if famName != "" {
		ls = []string{famName}
	}

	for _, tn := range ls {
		t := tc.Tree(tn)
		if t == nil {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: chronogram not found\n", tn)
			continue
		}
		st := copyTree(t, stepX)
		if useRates {
			rt, err := familyRates(p, tn)
			if err != nil {
				fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v\n", tn, err)
			} else {
				st.setColor(t, rt)
			}
		}
		if err := writeSVG(tn, st); err != nil {
			return err
		}
	}
	return nil
}

// FamilyRates returns the local substitution rate
// of each split of a family,
// indexed by topology hash,
// from the ratogram of the calibrated trees.
func familyRates(p *project.Project, family string) (map[string]float64, error) {
	res, err := p.CalibratedTrees()
	if err != nil {
		return nil, err
	}
	v, ok := res[family]
	if !ok || v.Ratogram == "" {
		return nil, fmt.Errorf("no ratogram")
	}

	t, err := gentree.Parse(strings.NewReader(v.Ratogram), family)
	if err != nil {
		return nil, err
	}
	topology.Index(t, make(map[string][]*gentree.Node))

	rt := make(map[string]float64)
	t.DepthFirst(func(n *gentree.Node) {
		if n.Parent == nil {
			return
		}
		rt[n.Hash] = n.Len
	}, nil)
	return rt, nil
}

func writeSVG(name string, t svgTree) (err error) {
	if outPrefix != "" {
		name = fmt.Sprintf("%s-%s.svg", outPrefix, name)
	} else {
		name += ".svg"
	}

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

	bw := bufio.NewWriter(f)
	if err := t.draw(bw); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return nil
}
