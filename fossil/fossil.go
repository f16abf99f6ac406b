// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fossil implements fossil calibration records,
// a local file cache of per-taxon calibrations,
// and the mapping of calibrations
// into the speciation nodes
// of a reconciled gene-family tree.
package fossil

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

// Placement indicates the kind of node
// constrained by a fossil calibration.
type Placement string

// Valid placements.
const (
	// The fossil constrains the most recent common ancestor
	// of the living members of the clade.
	Crown Placement = "crown"

	// The fossil constrains the branch
	// leading into the clade.
	Stem Placement = "stem"
)

// A Record is a fossil calibration
// for a named taxon.
type Record struct {
	// ID is the identifier of the record
	// in its source database.
	ID string

	// Taxon is the name of the calibrated taxon,
	// i.e. the label of the node it constrains.
	Taxon string

	// Age bounds of the calibration,
	// in million years.
	MinMa float64
	MaxMa float64

	// Placement of the calibration.
	Placement Placement
}

var header = []string{
	"id",
	"taxon",
	"min-ma",
	"max-ma",
	"placement",
}

// ReadTSV reads a list of fossil records from a TSV file.
//
// The TSV must contain the following fields:
//
//   - id, the record identifier in the source database
//   - taxon, the calibrated taxon name
//   - min-ma, minimum age, in million years
//   - max-ma, maximum age, in million years
//   - placement, either "crown" or "stem"
//
// Here is an example file:
//
//	# fossil calibrations for Homininae
//	id	taxon	min-ma	max-ma	placement
//	pbdb:83453	Homininae	7.25	10.00	crown
//
// Records with a repeated id are read only once.
func ReadTSV(r io.Reader) ([]Record, error) {
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

	var recs []Record
	ids := make(map[string]bool)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "id"
		id := row[fields[f]]
		if ids[id] {
			continue
		}
		ids[id] = true

		f = "taxon"
		tax := strings.TrimSpace(row[fields[f]])
		if tax == "" {
			return nil, fmt.Errorf("on row %d, field %q: empty taxon", ln, f)
		}

		f = "min-ma"
		min, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "max-ma"
		max, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "placement"
		pl := Placement(strings.ToLower(row[fields[f]]))
		switch pl {
		case Crown, Stem:
		default:
			return nil, fmt.Errorf("on row %d, field %q: unknown placement %q", ln, f, row[fields[f]])
		}

		recs = append(recs, Record{
			ID:        id,
			Taxon:     tax,
			MinMa:     min,
			MaxMa:     max,
			Placement: pl,
		})
	}
	return recs, nil
}

// WriteTSV writes a list of fossil records
// as a TSV file.
func WriteTSV(w io.Writer, recs []Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# fossil calibration records\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	recs = slices.Clone(recs)
	slices.SortFunc(recs, func(a, b Record) int {
		if c := strings.Compare(a.Taxon, b.Taxon); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	for _, rec := range recs {
		row := []string{
			rec.ID,
			rec.Taxon,
			strconv.FormatFloat(rec.MinMa, 'f', 6, 64),
			strconv.FormatFloat(rec.MaxMa, 'f', 6, 64),
			string(rec.Placement),
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("record %q: %v", rec.ID, err)
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
