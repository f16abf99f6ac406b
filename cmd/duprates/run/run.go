// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package run implements a command to execute
// the whole DupRates pipeline
// over every gene family of a project.
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/duprates/fossil"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/outlier"
	"github.com/js-arias/duprates/project"
	"github.com/js-arias/duprates/r8s"
	"github.com/js-arias/duprates/rates"
	"github.com/js-arias/duprates/topology"
	"github.com/js-arias/timetree"
)

var Command = &command.Command{
	Usage: `run [--url <service-url>] [--deviations <value>]
	[--r8s <path>] [--timeout <seconds>]
	<project-file>`,
	Short: "run the whole pipeline over a project",
	Long: `
Command run executes the whole DupRates pipeline over every gene family of a
project: it prunes the long-branch outliers of each gene tree, retrieves and
maps the fossil calibrations, calibrates the tree with the r8s program, and
builds the post-duplication rate table from the calibrated trees. The pruned
trees, the calibrated trees, the chronograms, and the rate table are all
stored in the project.

The argument of the command is the name of the project file.

A family that fails at any stage is reported and skipped, and the remaining
families are still processed; at the end of the run a summary line per
family tells if it passed or failed. A failed family leaves no rows in the
rate table.

If the flag --url is set, the fossil calibrations of taxa not yet in the
cache are retrieved from the indicated service; otherwise only the cached
calibrations are used.

The flag --deviations sets the threshold for the outlier pruning, as the
number of standard deviations of the root distance of a terminal (it can
have decimal points); the default is 8. Use a zero or negative value to skip
the pruning.

The r8s binary is searched on the executable path; use the flag --r8s to set
an explicit path. By default a run is unbounded; use the flag --timeout to
set a maximum run time, in seconds, per family.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var srvURL string
var devFlag float64
var binPath string
var timeoutFlag int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&srvURL, "url", "", "")
	c.Flags().Float64Var(&devFlag, "deviations", outlier.DefaultDeviations, "")
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

	cacheDir := p.Path(project.Fossils)
	if cacheDir == "" {
		cacheDir = "fossil-cache"
	}
	cache, err := fossil.OpenCache(cacheDir)
	if err != nil {
		return err
	}
	var cl fossil.Fetcher
	if srvURL != "" {
		cl = &fossil.Client{Base: srvURL}
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
	tt := timetree.NewCollection()
	var rows []rates.Record
	passed := make(map[string]bool)

	for _, fam := range tc.Names() {
		t := tc.Tree(fam)
		rs, err := runFamily(c, fam, t, ls[fam], cache, cl, runner, res, tt)
		if err != nil {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v\n", fam, err)
			continue
		}
		rows = append(rows, rs...)
		passed[fam] = true
	}

	if err := writeOutputs(p, cacheDir, tc, res, tt, rows); err != nil {
		return err
	}

	for _, fam := range tc.Names() {
		status := "FAILED"
		if passed[fam] {
			status = "PASSED"
		}
		fmt.Fprintf(c.Stdout(), "%s\t%s\n", fam, status)
	}
	return nil
}

// RunFamily moves a single gene family
// through all the stages of the pipeline.
// A failure at any stage is returned as an error
// and leaves no rows in the rate table.
func runFamily(c *command.Command, fam string, t *gentree.Tree, sites int, cache *fossil.Cache, cl fossil.Fetcher, runner *r8s.Runner, res map[string]r8s.Result, tt *timetree.Collection) ([]rates.Record, error) {
	if sites <= 0 {
		return nil, fmt.Errorf("no alignment length")
	}

	if devFlag > 0 {
		if _, err := outlier.Prune(t, devFlag); err != nil {
			return nil, err
		}
	}

	recs, err := fossil.Resolve(t, cache, cl, c.Stderr())
	if err != nil {
		return nil, err
	}
	mapped := fossil.Map(t, recs, c.Stderr())
	if len(mapped) == 0 {
		return nil, fmt.Errorf("no fossil calibration mapped")
	}

	mrca, err := mrcaPairs(t, mapped)
	if err != nil {
		return nil, err
	}

	var nw strings.Builder
	if err := t.Newick(&nw); err != nil {
		return nil, err
	}

	out, err := runner.Run(context.Background(), r8s.Input{
		Family:  fam,
		Newick:  strings.TrimSpace(nw.String()),
		AlnLen:  sites,
		Fossils: mapped,
		MRCA:    mrca,
	})
	if err != nil {
		return nil, err
	}
	r, err := r8s.ParseOutput(out)
	if err != nil {
		return nil, err
	}
	res[fam] = r

	nt, err := chronogramAsTimeTree(fam, r.Chronogram)
	if err != nil {
		return nil, fmt.Errorf("chronogram: %v", err)
	}
	if err := tt.Add(nt); err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: family %q: %v\n", fam, err)
	}

	return familyRates(c, fam, r)
}

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

func familyRates(c *command.Command, fam string, r r8s.Result) ([]rates.Record, error) {
	nodes := make(map[string][]*gentree.Node)
	for _, tv := range []struct{ analysis, nw string }{
		{"chronogram", r.Chronogram},
		{"ratogram", r.Ratogram},
		{"phylogram", r.Phylogram},
	} {
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
		if len(b) != 3 {
			fmt.Fprintf(c.Stderr(), "WARNING: family %q: taxon %q: found on %d of 3 trees\n", fam, b[0].Name, len(b))
			continue
		}
		rs, err := rates.Walk(fam, b[0], b[1], b[2])
		if err != nil {
			return nil, err
		}
		rows = append(rows, rs...)
	}
	return rows, nil
}

func writeOutputs(p *project.Project, cacheDir string, tc *gentree.Collection, res map[string]r8s.Result, tt *timetree.Collection, rows []rates.Record) error {
	treeFile := p.Path(project.GeneTrees)
	if treeFile == "" {
		treeFile = "gene-trees.tab"
	}
	if err := writeFile(treeFile, tc.TSV); err != nil {
		return err
	}
	p.Add(project.GeneTrees, treeFile)
	p.Add(project.Fossils, cacheDir)

	calFile := p.Path(project.Calibrated)
	if calFile == "" {
		calFile = "calibrated.tab"
	}
	if err := writeFile(calFile, func(w io.Writer) error {
		return r8s.WriteTrees(w, res)
	}); err != nil {
		return err
	}
	p.Add(project.Calibrated, calFile)

	ttFile := p.Path(project.Chronograms)
	if ttFile == "" {
		ttFile = "chronograms.tab"
	}
	if err := writeFile(ttFile, tt.TSV); err != nil {
		return err
	}
	p.Add(project.Chronograms, ttFile)

	ratesFile := p.Path(project.Rates)
	if ratesFile == "" {
		ratesFile = "rates.tab"
	}
	if err := writeFile(ratesFile, func(w io.Writer) error {
		return rates.WriteTSV(w, rows)
	}); err != nil {
		return err
	}
	p.Add(project.Rates, ratesFile)

	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func writeFile(name string, fn func(io.Writer) error) (err error) {
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

	if err := fn(f); err != nil {
		return fmt.Errorf("while writing to %q: %v", name, err)
	}
	return nil
}
