// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// DupRates is a tool to date gene duplication events
// with fossil calibrations
// and to measure post-duplication substitution rates.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/cmd/duprates/calibrate"
	"github.com/js-arias/duprates/cmd/duprates/fossil"
	"github.com/js-arias/duprates/cmd/duprates/lengths"
	"github.com/js-arias/duprates/cmd/duprates/ratescmd"
	"github.com/js-arias/duprates/cmd/duprates/run"
	"github.com/js-arias/duprates/cmd/duprates/tree"
)

var app = &command.Command{
	Usage: "duprates <command> [<argument>...]",
	Short: "a tool to date gene duplications and measure substitution rates",
}

func init() {
	app.Add(calibrate.Command)
	app.Add(fossil.Command)
	app.Add(lengths.Command)
	app.Add(ratescmd.Command)
	app.Add(run.Command)
	app.Add(tree.Command)
}

func main() {
	app.Main()
}
