/*
 * plot.go, part of ample.
 *
 * Copyright 2026 The ample authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rmera/ample/metric"
)

//VarianceProfile plots the variance of each residue against its number and saves the
//plot to filename. The format is taken from the extension (png, svg, pdf...).
//Each threshold is drawn as a horizontal line.
func VarianceProfile(v []metric.ResidueVariance, thresholds []float64, title, filename string) error {
	if len(v) == 0 {
		return fmt.Errorf("VarianceProfile: no data")
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "Residue"
	p.Y.Label.Text = "Variance"
	pts := make(plotter.XYs, len(v))
	for i, w := range v {
		pts[i].X = float64(w.ResSeq)
		pts[i].Y = w.Variance
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	first, last := pts[0].X, pts[len(pts)-1].X
	for _, t := range thresholds {
		tl, err := plotter.NewLine(plotter.XYs{{X: first, Y: t}, {X: last, Y: t}})
		if err != nil {
			return err
		}
		tl.Color = color.RGBA{R: 200, A: 255}
		tl.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(tl)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
