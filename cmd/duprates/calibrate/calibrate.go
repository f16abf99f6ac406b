// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calibrate implements a command to run
// the r8s program
// over the gene trees of a DupRates project,
// producing the calibrated trees of each family.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/fossil"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/project"
	"github.com/js-arias/duprates/r8s"
	"github.com/js-arias/duprates/topology"
	"github.com/js-arias/timetree"
)

var Command = &command.Command{
	Usage: `calibrate [--family <name>]
	[--r8s <path>] [--timeout <seconds>]
	<project-file>`,
	Short: "calibrate gene trees with the r8s program",
	Long: `
Command calibrate reads the gene trees of a DupRates project, maps the
cached fossil calibrations to each tree, and runs the r8s program to
estimate the divergence times and substitution rates of each family. For
each successful run the three calibrated trees (ratogram, chronogram, and
phylogram) are stored in the calibrated tree file of the project, and the
chronogram is also stored as a time tree, so it can be used by other tools.

The argument of the command is the name of the project file.

By default all families are calibrated. If the flag --family is set, only
the indicated family will be calibrated.

The fossil calibrations are read from the fossil cache of the project; use
the command "duprates fossil fetch" to populate the cache. A family without
an alignment length, without any mapped calibration, or whose r8s run does
not pass the convergence check, is skipped with a warning, and the
remaining families are still processed.

The r8s binary is searched on the executable path; use the flag --r8s to
set an explicit path. By default a run is unbounded; use the flag --timeout
to set a maximum run time, in seconds, per family.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var famName string
var binPath string
var timeoutFlag int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&famName, "family", "", "")
	c.Flags().StringVar(&binPath, "r8s", "", "")
	c.Flags().IntVar(&timeoutFlag, "timeout", 0, "")
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
	ls, err := p.Lengths()
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

	tmpl, err := p.CommandTemplate()
	if err != nil {
		return err
	}
	runner := &r8s.Runner{
		Path:     binPath,
		Template: tmpl,
		Timeout:  time.Duration(timeoutFlag) * time.Second,
	}

	res := make(map[string]r8s.Result)
	if p.Path(project.Calibrated) != "" {
		res, err = p.CalibratedTrees()
		if err != nil {
			return err
		}
	}
	tt := timetree.NewCollection()
	if p.Path(project.Chronograms) != "" {
		tt, err = p.Chronograms()
		if err != nil {
			return err
		}
	}

	families := tc.Names()
	if famName != "" {
		families = []string{famName}
	}

	for _, fam := range families {
		t := tc.Tree(fam)
		if t == nil {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: tree not found\n", fam)
			continue
		}
		if err := calibrateFamily(c, fam, t, ls[fam], cache, runner, res, tt); err != nil {
			return err
		}
	}

	if err := writeResults(p, res, tt); err != nil {
		return err
	}
	return nil
}

func calibrateFamily(c *command.Command, fam string, t *gentree.Tree, sites int, cache *fossil.Cache, runner *r8s.Runner, res map[string]r8s.Result, tt *timetree.Collection) error {
	if sites <= 0 {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: no alignment length: skipped\n", fam)
		return nil
	}

	recs, err := fossil.Resolve(t, cache, nil, c.Stderr())
	if err != nil {
		return err
	}
	mapped := fossil.Map(t, recs, c.Stderr())
	if len(mapped) == 0 {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: no fossil calibration mapped: skipped\n", fam)
		return nil
	}

	mrca, err := mrcaPairs(t, mapped)
	if err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v: skipped\n", fam, err)
		return nil
	}

	var nw strings.Builder
	if err := t.Newick(&nw); err != nil {
		return err
	}

	out, err := runner.Run(context.Background(), r8s.Input{
		Family:  fam,
		Newick:  strings.TrimSpace(nw.String()),
		AlnLen:  sites,
		Fossils: mapped,
		MRCA:    mrca,
	})
	if err != nil {
		if errors.Is(err, r8s.ErrTool) {
			fmt.Fprintf(c.Stderr(), "WARNING: %v: skipped\n", err)
			return nil
		}
		return err
	}

	r, err := r8s.ParseOutput(out)
	if err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v: skipped\n", fam, err)
		return nil
	}
	res[fam] = r

	nt, err := chronogramAsTimeTree(fam, r.Chronogram)
	if err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: chronogram: %v\n", fam, err)
		return nil
	}
	if err := tt.Add(nt); err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v\n", fam, err)
	}
	return nil
}

// MrcaPairs returns,
// for each calibrated taxon,
// a pair of terminals
// whose most recent common ancestor
// is the calibrated node.
func mrcaPairs(t *gentree.Tree, mapped []fossil.Record) (map[string][2]string, error) {
	nodes := make(map[string]*gentree.Node)
	t.DepthFirst(func(n *gentree.Node) {
		if n.IsTerm() || n.Name == "" {
			return
		}
		nodes[n.Name] = n
	}, nil)

	mrca := make(map[string][2]string)
	for _, rec := range mapped {
		n, ok := nodes[rec.Taxon]
		if !ok {
			return nil, fmt.Errorf("calibrated node %q not found", rec.Taxon)
		}
		if len(n.Children) < 2 {
			return nil, fmt.Errorf("calibrated node %q with a single child", rec.Taxon)
		}
		mrca[rec.Taxon] = [2]string{
			firstTerm(n.Children[0]),
			firstTerm(n.Children[len(n.Children)-1]),
		}
	}
	return mrca, nil
}

func firstTerm(n *gentree.Node) string {
	for !n.IsTerm() {
		n = n.Children[0]
	}
	return n.Name
}

// ChronogramAsTimeTree imports a chronogram,
// with branch lengths in million years,
// as a time tree.
func chronogramAsTimeTree(fam, nw string) (*timetree.Tree, error) {
	t, err := gentree.Parse(strings.NewReader(nw), fam)
	if err != nil {
		return nil, err
	}
	topology.Index(t, make(map[string][]*gentree.Node))

	var rootAge float64
	for _, term := range t.Terms() {
		if term.DistRoot > rootAge {
			rootAge = term.DistRoot
		}
	}

	nc, err := timetree.Newick(strings.NewReader(nw), fam, int64(rootAge*gentree.MillionYears))
	if err != nil {
		return nil, err
	}
	names := nc.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("no tree read")
	}
	return nc.Tree(names[0]), nil
}

func writeResults(p *project.Project, res map[string]r8s.Result, tt *timetree.Collection) error {
	calFile := p.Path(project.Calibrated)
	if calFile == "" {
		calFile = "calibrated.tab"
	}
	if err := writeCalibrated(calFile, res); err != nil {
		return err
	}
	p.Add(project.Calibrated, calFile)

	ttFile := p.Path(project.Chronograms)
	if ttFile == "" {
		ttFile = "chronograms.tab"
	}
	if err := writeTimeTrees(ttFile, tt); err != nil {
		return err
	}
	p.Add(project.Chronograms, ttFile)

	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func writeCalibrated(name string, res map[string]r8s.Result) (err error) {
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

	if err := r8s.WriteTrees(f, res); err != nil {
		return fmt.Errorf("while writing to %q: %v", name, err)
	}
	return nil
}

func writeTimeTrees(name string, tt *timetree.Collection) (err error) {
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

	if err := tt.TSV(f); err != nil {
		return fmt.Errorf("while writing to %q: %v", name, err)
	}
	return nil
}
