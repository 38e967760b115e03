/*
 * native.go, part of ample.
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

package metric

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/pdb"
)

//Native computes variances and distances in-process, from the C-alpha atoms.
type Native struct {
	MaxIterations int
	Tolerance     float64 //on the RMSD between consecutive mean structures
	NCPU          int
}

//NewNative returns a Native provider.
func NewNative(maxIterations int, tolerance float64) *Native {
	if maxIterations < 1 {
		maxIterations = 50
	}
	if tolerance <= 0 {
		tolerance = 1e-4
	}
	return &Native{MaxIterations: maxIterations, Tolerance: tolerance, NCPU: runtime.NumCPU()}
}

//caSet is the C-alpha trace of a set of models with a common numbering.
type caSet struct {
	residues []int
	resnames []string
	coords   []*mat.Dense
	models   []*pdb.Structure
}

//loadCA reads the models and checks that they have the same chains and residues.
//If residues is not nil, only those are used for the traces.
func loadCA(paths []string, residues []int) (*caSet, error) {
	if len(paths) == 0 {
		return nil, ample.NewMetricError(nil, "no models given")
	}
	set := &caSet{}
	var ref *pdb.Model
	for i, p := range paths {
		s, err := pdb.ReadFile(p)
		if err != nil {
			return nil, ample.NewMetricError(err, "reading model")
		}
		m := s.First()
		if m == nil || len(m.Atoms) == 0 {
			return nil, ample.NewMetricError(nil, "model %s has no atoms", p)
		}
		if i == 0 {
			ref = m
		} else if err := pdb.Consistent(ref, m); err != nil {
			return nil, ample.NewMetricError(err, "models %s and %s don't match", paths[0], p)
		}
		if residues != nil {
			m = (&pdb.Structure{Models: []*pdb.Model{m}}).SelectResidues(residues).First()
		}
		res, ca := m.CA()
		if i == 0 {
			set.residues = res
			set.resnames = caNames(m)
		} else if !sameInts(res, set.residues) {
			return nil, ample.NewMetricError(nil, "models %s and %s have C-alphas for different residues", paths[0], p)
		}
		if len(ca) == 0 {
			return nil, ample.NewMetricError(nil, "model %s has no C-alpha atoms", p)
		}
		set.coords = append(set.coords, toDense(ca))
		set.models = append(set.models, s)
	}
	return set, nil
}

func caNames(m *pdb.Model) []string {
	ret := make([]string, 0)
	seen := make(map[int]bool)
	for _, a := range m.Atoms {
		if a.Name == "CA" && !a.Het && !seen[a.ResSeq] {
			seen[a.ResSeq] = true
			ret = append(ret, a.ResName)
		}
	}
	return ret
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//meanFit superposes every structure iteratively onto their mean, until the mean changes
//less than the tolerance. It returns the mean, the superposed coordinates and the
//transformation applied to each structure.
func (N *Native) meanFit(ctx context.Context, X []*mat.Dense) (*mat.Dense, []*mat.Dense, []*transform, error) {
	mean, _ := centered(X[0])
	fitted := make([]*mat.Dense, len(X))
	transforms := make([]*transform, len(X))
	n, _ := mean.Dims()
	for it := 0; it < N.MaxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		newmean := mat.NewDense(n, 3, nil)
		for i, x := range X {
			T, err := fit(x, mean)
			if err != nil {
				return nil, nil, nil, ample.NewMetricError(err, "superposing model %d", i+1)
			}
			transforms[i] = T
			fitted[i] = T.ApplyAll(x)
			newmean.Add(newmean, fitted[i])
		}
		newmean.Scale(1/float64(len(X)), newmean)
		newmean, _ = centered(newmean)
		delta := rmsd(newmean, mean)
		mean = newmean
		if delta < N.Tolerance {
			return mean, fitted, transforms, nil
		}
	}
	return nil, nil, nil, ample.NewMetricError(nil, "superposition did not converge in %d iterations", N.MaxIterations)
}

//Variance implements Provider. The variance of a residue is the mean squared distance
//of its C-alpha to the C-alpha of the mean structure.
func (N *Native) Variance(ctx context.Context, models []string, workdir string) ([]ResidueVariance, error) {
	set, err := loadCA(models, nil)
	if err != nil {
		return nil, err
	}
	mean, fitted, _, err := N.meanFit(ctx, set.coords)
	if err != nil {
		return nil, err
	}
	ret := make([]ResidueVariance, len(set.residues))
	sq := make([]float64, len(fitted))
	for r := range set.residues {
		for i, f := range fitted {
			var d2 float64
			for k := 0; k < 3; k++ {
				d := f.At(r, k) - mean.At(r, k)
				d2 += d * d
			}
			sq[i] = d2
		}
		ret[r] = ResidueVariance{ResSeq: set.residues[r], ResName: set.resnames[r], Variance: stat.Mean(sq, nil)}
	}
	return ret, nil
}

type distrow struct {
	i    int
	vals []float64
}

//Distances implements Provider. Rows of the matrix are computed concurrently.
func (N *Native) Distances(ctx context.Context, models []string, workdir string) (*mat.SymDense, error) {
	set, err := loadCA(models, nil)
	if err != nil {
		return nil, err
	}
	return N.distanceMatrix(ctx, set.coords)
}

func (N *Native) distanceMatrix(ctx context.Context, X []*mat.Dense) (*mat.SymDense, error) {
	n := len(X)
	D := mat.NewSymDense(n, nil)
	cpus := N.NCPU
	if cpus < 1 {
		cpus = 1
	}
	sem := make(chan struct{}, cpus)
	results := make(chan distrow, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			sem <- struct{}{}
			defer func() { <-sem }()
			row := make([]float64, n)
			for j := i + 1; j < n; j++ {
				if ctx.Err() != nil {
					row[j] = math.NaN()
					continue
				}
				d, err := superposedRMSD(X[j], X[i])
				if err != nil {
					d = math.NaN()
				}
				row[j] = d
			}
			results <- distrow{i, row}
		}(i)
	}
	for c := 0; c < n; c++ {
		r := <-results
		for j := r.i + 1; j < n; j++ {
			D.SetSym(r.i, j, r.vals[j])
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return D, nil
}

//Superpose implements Provider. Every model is moved onto the mean C-alpha trace of the
//residues given, and all of its atoms are written.
func (N *Native) Superpose(ctx context.Context, models []string, residues []int, out string) error {
	set, err := loadCA(models, residues)
	if err != nil {
		return err
	}
	_, _, transforms, err := N.meanFit(ctx, set.coords)
	if err != nil {
		return err
	}
	moved := make([]*pdb.Structure, len(set.models))
	for i, s := range set.models {
		c := &pdb.Structure{Models: []*pdb.Model{s.First().Copy()}}
		for _, a := range c.First().Atoms {
			a.Coords = transforms[i].Apply(a.Coords)
		}
		moved[i] = c
	}
	merged := pdb.Merge(moved)
	merged.Remarks = []string{fmt.Sprintf("superposition of %d models on %d C-alphas", len(models), len(set.residues))}
	if err := pdb.WriteFile(out, merged); err != nil {
		return ample.NewMetricError(err, "writing superposed models")
	}
	return nil
}
