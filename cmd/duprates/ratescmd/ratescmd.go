// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ratescmd is a metapackage for commands
// that dealt with post-duplication substitution rates.
package ratescmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/cmd/duprates/ratescmd/calc"
	"github.com/js-arias/duprates/cmd/duprates/ratescmd/plot"
)

var Command = &command.Command{
	Usage: "rates <command> [<argument>...]",
	Short: "commands for post-duplication substitution rates",
}

func init() {
	Command.Add(calc.Command)
	Command.Add(plot.Command)
}
