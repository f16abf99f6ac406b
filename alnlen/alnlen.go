// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package alnlen implements reading and writing
// of per-family alignment lengths.
//
// The external calibration program needs the number of sites
// of the alignment used to estimate each gene tree;
// a family without an alignment length
// cannot be calibrated and is skipped.
package alnlen

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Lengths is a set of alignment lengths,
// in sites,
// indexed by gene family.
type Lengths map[string]int

var header = []string{
	"family",
	"sites",
}

// Read reads a set of alignment lengths from a TSV file.
//
// The TSV must contain the following fields:
//
//   - family, the gene family identifier
//   - sites, the alignment length in sites
//
// Here is an example file:
//
//	# alignment lengths
//	family	sites
//	fam-6722	1359
//	fam-8990	822
func Read(r io.Reader) (Lengths, error) {
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

	ls := make(Lengths)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "family"
		fam := row[fields[f]]

		f = "sites"
		sites, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}
		if sites <= 0 {
			return nil, fmt.Errorf("on row %d, field %q: invalid length %d", ln, f, sites)
		}
		ls[fam] = sites
	}
	return ls, nil
}

// TSV writes a set of alignment lengths
// as a TSV file.
func (ls Lengths) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# alignment lengths\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	families := make([]string, 0, len(ls))
	for fam := range ls {
		families = append(families, fam)
	}
	slices.Sort(families)

	for _, fam := range families {
		row := []string{
			fam,
			strconv.Itoa(ls[fam]),
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("family %q: %v", fam, err)
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
