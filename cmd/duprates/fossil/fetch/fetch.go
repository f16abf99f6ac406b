// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fetch implements a command to retrieve
// the fossil calibrations
// for the taxa named on the gene trees of a DupRates project.
package fetch

import (
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/fossil"
	"github.com/js-arias/duprates/project"
)

var Command = &command.Command{
	Usage: `fetch [--url <service-url>] [--dir <cache-dir>]
	<project-file>`,
	Short: "retrieve fossil calibrations into the project cache",
	Long: `
Command fetch reads the gene trees of a DupRates project, and retrieves the
fossil calibrations for every taxon named on an internal node of a tree,
storing them in the fossil cache of the project.

The argument of the command is the name of the project file.

A taxon already present in the cache is never fetched again, even if the
previous fetch found no calibrations for it, so repeated runs of the command
over the same project make no remote requests.

The flag --url sets the URL of the fossil calibration service. The flag
--dir sets the cache directory; by default the directory defined in the
project is used, or 'fossil-cache' if the project has none.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var srvURL string
var cacheDir string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&srvURL, "url", "", "")
	c.Flags().StringVar(&cacheDir, "dir", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if srvURL == "" {
		return c.UsageError("expecting --url flag with the calibration service")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.GeneTrees()
	if err != nil {
		return err
	}

	if cacheDir == "" {
		cacheDir = p.Path(project.Fossils)
		if cacheDir == "" {
			cacheDir = "fossil-cache"
		}
	}
	cache, err := fossil.OpenCache(cacheDir)
	if err != nil {
		return err
	}
	cl := &fossil.Client{Base: srvURL}

	for _, tn := range tc.Names() {
		t := tc.Tree(tn)
		if _, err := fossil.Resolve(t, cache, cl, c.Stderr()); err != nil {
			return err
		}
	}

	p.Add(project.Fossils, cacheDir)
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}
