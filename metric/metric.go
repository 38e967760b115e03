/*
 * metric.go, part of ample.
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

//Package metric computes the per-residue structural variance of a set of decoys
//and the pairwise distances between them.
package metric

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/job"
)

//ResidueVariance is the positional variance of one residue over a set of
//superposed structures.
type ResidueVariance struct {
	ResSeq   int
	ResName  string
	Variance float64
}

//Provider gives the structural measures the pipeline needs. All the models
//passed in one call must share their residue numbering.
type Provider interface {
	//Variance returns the variance of each residue, in residue order.
	Variance(ctx context.Context, models []string, workdir string) ([]ResidueVariance, error)
	//Distances returns the RMSD between every pair of models after superposition.
	//Pairs that could not be superposed get NaN.
	Distances(ctx context.Context, models []string, workdir string) (*mat.SymDense, error)
	//Superpose superposes the models using the C-alphas of residues (all, if nil) and
	//writes them as a multi-model file to out.
	Superpose(ctx context.Context, models []string, residues []int, out string) error
}

//New returns the provider selected in cfg.
func New(cfg ample.MetricConfig, timeout time.Duration, keepScratch bool) (Provider, error) {
	native := NewNative(cfg.MaxIterations, cfg.Tolerance)
	switch cfg.Backend {
	case ample.MetricNative, "":
		return native, nil
	case ample.MetricTheseus:
		exe, err := job.CheckExecutable(cfg.TheseusExe)
		if err != nil {
			return nil, err
		}
		T := NewTheseus(exe, native)
		T.Timeout = timeout
		T.KeepScratch = keepScratch
		return T, nil
	}
	return nil, ample.NewConfigError("unknown metric backend %q", cfg.Backend)
}

//Variances returns only the variance values of v.
func Variances(v []ResidueVariance) []float64 {
	r := make([]float64, len(v))
	for i, w := range v {
		r[i] = w.Variance
	}
	return r
}
