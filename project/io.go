// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"
	"text/template"

	"github.com/js-arias/duprates/alnlen"
	"github.com/js-arias/duprates/gentree"
	"github.com/js-arias/duprates/r8s"
	"github.com/js-arias/duprates/rates"
	"github.com/js-arias/timetree"
)

// GeneTrees reads the gene tree collection
// as defined in a project.
func (p *Project) GeneTrees() (*gentree.Collection, error) {
	name := p.Path(GeneTrees)
	if name == "" {
		return nil, fmt.Errorf("gene trees not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := gentree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return c, nil
}

// Lengths reads the alignment length file
// as defined in a project.
func (p *Project) Lengths() (alnlen.Lengths, error) {
	name := p.Path(Lengths)
	if name == "" {
		return nil, fmt.Errorf("alignment lengths not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ls, err := alnlen.Read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return ls, nil
}

// CalibratedTrees reads the calibrated trees
// as defined in a project.
func (p *Project) CalibratedTrees() (map[string]r8s.Result, error) {
	name := p.Path(Calibrated)
	if name == "" {
		return nil, fmt.Errorf("calibrated trees not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := r8s.ReadTrees(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return res, nil
}

// Chronograms reads the time tree collection
// of calibrated chronograms
// as defined in a project.
func (p *Project) Chronograms() (*timetree.Collection, error) {
	name := p.Path(Chronograms)
	if name == "" {
		return nil, fmt.Errorf("chronograms not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := timetree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return c, nil
}

// RateRecords reads the post-duplication rate table
// as defined in a project.
func (p *Project) RateRecords() ([]rates.Record, error) {
	name := p.Path(Rates)
	if name == "" {
		return nil, fmt.Errorf("rates not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := rates.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return recs, nil
}

// CommandTemplate reads the r8s command template
// as defined in a project.
// If the project does not define a template
// the default template is returned.
func (p *Project) CommandTemplate() (*template.Template, error) {
	name := p.Path(Template)
	if name == "" {
		return template.New("r8s").Parse(r8s.DefaultTemplate)
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("r8s").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return tmpl, nil
}
