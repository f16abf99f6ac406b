// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package r8s

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotPassed is returned when the r8s run
// did not report a passed gradient check,
// i.e. the calibration did not converge.
var ErrNotPassed = errors.New("calibration did not pass")

// A Result holds the three calibrated trees
// of a successful r8s run,
// as newick strings.
type Result struct {
	// Branch lengths in substitution rate units.
	Ratogram string

	// Branch lengths in time units.
	Chronogram string

	// Branch lengths in substitutions per site.
	Phylogram string
}

var treeRx = regexp.MustCompile(`^\s*tree\s+\S+\s*=\s*(\(.*;)\s*$`)

// ParseOutput scans the combined output of an r8s run
// for the calibrated trees.
//
// The output must contain the literal PASSED marker
// of the gradient check;
// without it the run is taken as not converged
// and ErrNotPassed is returned.
// After the marker,
// the next three tree description lines
// are taken to be,
// in order,
// the ratogram,
// the chronogram,
// and the phylogram.
func ParseOutput(out string) (Result, error) {
	var trees []string
	passed := false

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		ln := sc.Text()
		if !passed {
			if strings.Contains(ln, "PASSED") {
				passed = true
			}
			continue
		}
		m := treeRx.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		trees = append(trees, m[1])
		if len(trees) == 3 {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("while scanning output: %v", err)
	}

	if !passed {
		return Result{}, ErrNotPassed
	}
	if len(trees) < 3 {
		return Result{}, fmt.Errorf("expecting 3 trees after pass marker, found %d", len(trees))
	}
	return Result{
		Ratogram:   trees[0],
		Chronogram: trees[1],
		Phylogram:  trees[2],
	}, nil
}
