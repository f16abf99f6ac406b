// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gentree

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

// A Collection is a set of gene-family trees
// indexed by family name.
type Collection struct {
	trees map[string]*Tree
}

// NewCollection creates a new empty collection.
func NewCollection() *Collection {
	return &Collection{
		trees: make(map[string]*Tree),
	}
}

// Add adds a tree to the collection.
// It returns an error if the collection
// already has a tree with the same name.
func (c *Collection) Add(t *Tree) error {
	name := t.Name()
	if name == "" {
		return errors.New("tree without name")
	}
	if _, ok := c.trees[name]; ok {
		return fmt.Errorf("tree %q already in collection", name)
	}
	c.trees[name] = t
	return nil
}

// Names returns the sorted names
// of the trees in the collection.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.trees))
	for n := range c.trees {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Tree returns a tree with a given name,
// or nil if the tree is not in the collection.
func (c *Collection) Tree(name string) *Tree {
	return c.trees[name]
}

var header = []string{
	"family",
	"newick",
}

// ReadTSV reads a collection of gene trees from a TSV file.
//
// The TSV must contain the following fields:
//
//   - family, the gene family identifier
//   - newick, the tree in parenthetical format
//
// Here is an example file:
//
//	# gene family trees
//	family	newick
//	fam-6722	((Homo_sapiens:0.017,Pan_troglodytes:0.013)Homininae:0.041,Macaca_mulatta:0.096)Catarrhini;
func ReadTSV(r io.Reader) (*Collection, error) {
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

	c := NewCollection()
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
		name := row[fields[f]]

		f = "newick"
		t, err := Parse(strings.NewReader(row[fields[f]]), name)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
		if err := c.Add(t); err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
	}
	return c, nil
}

// TSV writes a collection of gene trees
// as a TSV file.
func (c *Collection) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# gene family trees\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for _, name := range c.Names() {
		t := c.trees[name]
		var b strings.Builder
		if err := t.Newick(&b); err != nil {
			return fmt.Errorf("tree %q: %v", name, err)
		}
		row := []string{
			name,
			strings.TrimSpace(b.String()),
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("tree %q: %v", name, err)
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
