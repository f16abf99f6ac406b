// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package plot implements a command to plot
// the post-duplication rate table of a DupRates project.
package plot

import (
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/blind"
	"github.com/js-arias/command"
	"github.com/js-arias/duprates/project"
	"github.com/js-arias/duprates/rates"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var Command = &command.Command{
	Usage: `plot [--bin <value>]
	[-o|--output <out-file>] <project-file>`,
	Short: "plot rate against time since duplication",
	Long: `
Command plot reads the post-duplication rate table of a DupRates project and
plots the local substitution rate of each branch against its time distance
from the duplication node, saving the plot as a PNG file.

The argument of the command is the name of the project file.

Each branch is a point, colored by its rate, from purple (slow) to red
(fast), on a log scale. A trend line with the median rate per time bin is
drawn on top of the points. By default time bins of 5 million years are
used; use the flag --bin to set a different bin size (it can have decimal
points).

By default the plot is saved as 'rates.png'. Use the flag -o, or --output,
to set a different file name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var binSize float64
var outFile string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&binSize, "bin", 5, "")
	c.Flags().StringVar(&outFile, "output", "rates.png", "")
	c.Flags().StringVar(&outFile, "o", "rates.png", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if binSize <= 0 {
		return c.UsageError("invalid --bin value")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	recs, err := p.RateRecords()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("project %q: empty rate table", args[0])
	}

	plt := plot.New()
	plt.X.Label.Text = "time since duplication (My)"
	plt.Y.Label.Text = "rate (subs/site/My)"

	pts := make(plotter.XYs, 0, len(recs))
	min := math.MaxFloat64
	var max float64
	for _, r := range recs {
		pts = append(pts, plotter.XY{X: r.Distance, Y: r.Rate})
		if r.Rate <= 0 {
			continue
		}
		v := math.Log10(r.Rate)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		gs := draw.GlyphStyle{
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
		r := recs[i].Rate
		if r <= 0 || min >= max {
			gs.Color = blind.Sequential(blind.RainbowPurpleToRed, 0)
			return gs
		}
		gs.Color = blind.Sequential(blind.RainbowPurpleToRed, (math.Log10(r)-min)/(max-min))
		return gs
	}
	plt.Add(sc)

	tr, err := plotter.NewLine(trend(recs))
	if err != nil {
		return err
	}
	tr.LineStyle = plotter.DefaultLineStyle
	plt.Add(tr)

	if err := plt.Save(6*vg.Inch, 4*vg.Inch, outFile); err != nil {
		return err
	}
	return nil
}

// Trend returns the median rate per time bin.
func trend(recs []rates.Record) plotter.XYs {
	bins := make(map[int][]float64)
	for _, r := range recs {
		b := int(r.Distance / binSize)
		bins[b] = append(bins[b], r.Rate)
	}

	ids := make([]int, 0, len(bins))
	for b := range bins {
		ids = append(ids, b)
	}
	slices.Sort(ids)

	var xys plotter.XYs
	for _, b := range ids {
		rs := bins[b]
		slices.Sort(rs)
		weights := make([]float64, len(rs))
		for i := range weights {
			weights[i] = 1.0
		}
		m := stat.Quantile(0.5, stat.Empirical, rs, weights)
		xys = append(xys, plotter.XY{
			X: (float64(b) + 0.5) * binSize,
			Y: m,
		})
	}
	return xys
}
