// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package rates

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var header = []string{
	"family",
	"taxon",
	"distance",
	"rate",
	"hash",
	"tips",
	"mean-height",
}

// The column subset written when only a chronogram
// and a ratogram are compared.
var pairHeader = header[:5]

// WriteTSV writes a list of rate records
// as a TSV file.
// Records are written in the order given,
// one row per branch.
func WriteTSV(w io.Writer, recs []Record) error {
	return writeTSV(w, recs, false)
}

// WritePairTSV is like WriteTSV,
// but writes the column subset
// of a two-tree comparison,
// without the tips and mean-height columns.
func WritePairTSV(w io.Writer, recs []Record) error {
	return writeTSV(w, recs, true)
}

func writeTSV(w io.Writer, recs []Record, pair bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# post-duplication substitution rates\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	h := header
	if pair {
		h = pairHeader
	}
	if err := tsv.Write(h); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for _, rec := range recs {
		row := []string{
			rec.Family,
			rec.Taxon,
			strconv.FormatFloat(rec.Distance, 'f', 6, 64),
			strconv.FormatFloat(rec.Rate, 'f', 6, 64),
			rec.Hash,
		}
		if !pair {
			row = append(row,
				strconv.Itoa(rec.Tips),
				strconv.FormatFloat(rec.MeanHeight, 'f', 6, 64),
			)
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("family %q: %v", rec.Family, err)
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

// ReadTSV reads a list of rate records from a TSV file,
// in either the full or the two-tree column set.
//
// The TSV must contain the following fields:
//
//   - family, the gene family identifier
//   - taxon, the duplication node label
//   - distance, time since the duplication
//   - rate, local substitution rate of the branch
//   - hash, the topology hash of the duplication node
//
// and optionally:
//
//   - tips, terminals under the duplication node
//   - mean-height, mean terminal height in the phylogram
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
	for _, h := range pairHeader {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}
	_, full := fields["tips"]
	if full {
		if _, ok := fields["mean-height"]; !ok {
			return nil, fmt.Errorf("expecting field %q", "mean-height")
		}
	}

	var recs []Record
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		rec := Record{
			Family: row[fields["family"]],
			Taxon:  row[fields["taxon"]],
			Hash:   row[fields["hash"]],
		}

		f := "distance"
		rec.Distance, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "rate"
		rec.Rate, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		if full {
			f = "tips"
			rec.Tips, err = strconv.Atoi(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
			}

			f = "mean-height"
			rec.MeanHeight, err = strconv.ParseFloat(row[fields[f]], 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
