// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tree is a metapackage for commands
// that dealt with gene family trees.
package tree

import (
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/cmd/duprates/tree/add"
	"github.com/js-arias/duprates/cmd/duprates/tree/draw"
	"github.com/js-arias/duprates/cmd/duprates/tree/list"
	"github.com/js-arias/duprates/cmd/duprates/tree/prune"
	"github.com/js-arias/duprates/cmd/duprates/tree/terms"
)

var Command = &command.Command{
	Usage: "tree <command> [<argument>...]",
	Short: "commands for gene family trees",
}

func init() {
	Command.Add(add.Command)
	Command.Add(draw.Command)
	Command.Add(list.Command)
	Command.Add(prune.Command)
	Command.Add(terms.Command)
}
