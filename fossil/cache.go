// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package fossil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A Cache is a directory
// with one TSV file of fossil records per taxon.
//
// A taxon with a cache file is never fetched again,
// even if the remote lookup returned no records:
// an empty fetch is stored as a header-only file,
// so repeated runs over the same taxon set
// are fully reproducible without network access.
//
// The cache assumes a single writer;
// concurrent runs racing on the same taxon file
// is an accepted hazard.
type Cache struct {
	dir string
}

// OpenCache opens a cache directory,
// creating it if needed.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache %q: %v", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) fileName(taxon string) string {
	tax := strings.ReplaceAll(taxon, " ", "_")
	return filepath.Join(c.dir, tax+".tab")
}

// Has returns true if the taxon
// was already fetched.
func (c *Cache) Has(taxon string) bool {
	_, err := os.Stat(c.fileName(taxon))
	return err == nil
}

// Records returns the cached records of a taxon.
// A cached-but-empty taxon returns an empty list
// and no error.
func (c *Cache) Records(taxon string) ([]Record, error) {
	name := c.fileName(taxon)
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return recs, nil
}

// Store saves the records of a taxon in the cache.
// An empty record list writes a header-only file
// marking the taxon as fetched.
func (c *Cache) Store(taxon string, recs []Record) (err error) {
	name := c.fileName(taxon)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := WriteTSV(f, recs); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
