/*
 * superpose.go, part of ample.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//transform is a rigid-body motion: x' = R(x - From) + To.
type transform struct {
	R    *mat.Dense
	From [3]float64
	To   [3]float64
}

//Apply transforms the point x.
func (T *transform) Apply(x [3]float64) [3]float64 {
	var c, r [3]float64
	for k := range c {
		c[k] = x[k] - T.From[k]
	}
	for k := range r {
		r[k] = T.R.At(k, 0)*c[0] + T.R.At(k, 1)*c[1] + T.R.At(k, 2)*c[2] + T.To[k]
	}
	return r
}

//ApplyAll returns a new Nx3 matrix with every row of m transformed.
func (T *transform) ApplyAll(m *mat.Dense) *mat.Dense {
	n, _ := m.Dims()
	r := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		p := T.Apply([3]float64{m.At(i, 0), m.At(i, 1), m.At(i, 2)})
		r.SetRow(i, p[:])
	}
	return r
}

//toDense puts a list of points in a Nx3 matrix.
func toDense(c [][3]float64) *mat.Dense {
	m := mat.NewDense(len(c), 3, nil)
	for i, v := range c {
		m.SetRow(i, v[:])
	}
	return m
}

//centroid returns the geometric center of the rows of m.
func centroid(m *mat.Dense) [3]float64 {
	var c [3]float64
	n, _ := m.Dims()
	for k := range c {
		c[k] = floats.Sum(mat.Col(nil, k, m)) / float64(n)
	}
	return c
}

//centered returns a copy of m with its centroid at the origin.
func centered(m *mat.Dense) (*mat.Dense, [3]float64) {
	c := centroid(m)
	n, _ := m.Dims()
	r := mat.NewDense(n, 3, nil)
	r.Apply(func(i, j int, v float64) float64 { return v - c[j] }, m)
	return r, c
}

//fit returns the rotation and translation that best superimpose the points of
//mobile onto those of target, in the least-squares sense (Kabsch). Reflections are
//excluded.
func fit(mobile, target *mat.Dense) (*transform, error) {
	mr, mc := mobile.Dims()
	tr, tc := target.Dims()
	if mr != tr || mc != 3 || tc != 3 {
		return nil, fmt.Errorf("fit: ill-formed matrices: %dx%d and %dx%d", mr, mc, tr, tc)
	}
	if mr == 0 {
		return nil, fmt.Errorf("fit: no points")
	}
	P, pc := centered(mobile)
	Q, qc := centered(target)
	var H mat.Dense
	H.Mul(P.T(), Q)
	var svd mat.SVD
	if ok := svd.Factorize(&H, mat.SVDFull); !ok {
		return nil, fmt.Errorf("fit: SVD factorization failed")
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	var VUt mat.Dense
	VUt.Mul(&V, U.T())
	d := 1.0
	if mat.Det(&VUt) < 0 {
		d = -1
	}
	D := mat.NewDiagDense(3, []float64{1, 1, d})
	var VD, R mat.Dense
	VD.Mul(&V, D)
	R.Mul(&VD, U.T())
	return &transform{R: &R, From: pc, To: qc}, nil
}

//rmsd returns the root mean square deviation between the rows of a and b,
//without superimposing them.
func rmsd(a, b *mat.Dense) float64 {
	n, _ := a.Dims()
	var diff mat.Dense
	diff.Sub(a, b)
	s := mat.Norm(&diff, 2)
	return s / math.Sqrt(float64(n))
}

//superposedRMSD returns the RMSD between mobile and target after optimal superposition.
func superposedRMSD(mobile, target *mat.Dense) (float64, error) {
	T, err := fit(mobile, target)
	if err != nil {
		return math.NaN(), err
	}
	return rmsd(T.ApplyAll(mobile), target), nil
}
