// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fossil is a metapackage for commands
// that dealt with fossil calibrations.
package fossil

import (
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/cmd/duprates/fossil/fetch"
	"github.com/js-arias/duprates/cmd/duprates/fossil/mapcmd"
)

var Command = &command.Command{
	Usage: "fossil <command> [<argument>...]",
	Short: "commands for fossil calibrations",
}

func init() {
	Command.Add(fetch.Command)
	Command.Add(mapcmd.Command)
}
