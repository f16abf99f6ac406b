// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package r8s

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// Analysis types of a calibrated tree.
const (
	Ratogram   = "ratogram"
	Chronogram = "chronogram"
	Phylogram  = "phylogram"
)

var header = []string{
	"family",
	"analysis",
	"newick",
}

// ReadTrees reads the calibrated trees
// of one or more families from a TSV file,
// indexed by family name.
//
// The TSV must contain the following fields:
//
//   - family, the gene family identifier
//   - analysis, one of "ratogram", "chronogram", or "phylogram"
//   - newick, the tree in parenthetical format
func ReadTrees(r io.Reader) (map[string]Result, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	res := make(map[string]Result)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		fam := row[fields["family"]]
		nw := row[fields["newick"]]
		v := res[fam]

		f := "analysis"
		switch a := strings.ToLower(row[fields[f]]); a {
		case Ratogram:
			v.Ratogram = nw
		case Chronogram:
			v.Chronogram = nw
		case Phylogram:
			v.Phylogram = nw
		default:
			return nil, fmt.Errorf("on row %d, field %q: unknown analysis %q", ln, f, a)
		}
		res[fam] = v
	}
	return res, nil
}

// WriteTrees writes the calibrated trees
// of one or more families
// as a TSV file.
func WriteTrees(w io.Writer, res map[string]Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# calibrated gene family trees\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	families := make([]string, 0, len(res))
	for fam := range res {
		families = append(families, fam)
	}
	slices.Sort(families)

	for _, fam := range families {
		v := res[fam]
		for _, a := range []struct{ name, nw string }{
			{Ratogram, v.Ratogram},
			{Chronogram, v.Chronogram},
			{Phylogram, v.Phylogram},
		} {
			if a.nw == "" {
				continue
			}
			row := []string{
				fam,
				a.name,
				a.nw,
			}
			if err := tsv.Write(row); err != nil {
				return fmt.Errorf("family %q: %v", fam, err)
			}
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}
