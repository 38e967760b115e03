/*
 * metric_test.go, part of ample.
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
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/pdb"
	"github.com/rmera/ample/pdb/pdbtest"
)

func TestFitRecoversRotation(Te *testing.T) {
	base := pdbtest.Protein(12)
	moved := pdbtest.Perturb(base, pdbtest.Uniform(0), rand.New(rand.NewSource(3)))
	_, a := base.First().CA()
	_, b := moved.First().CA()
	A, B := toDense(a), toDense(b)
	assert.Greater(Te, rmsd(A, B), 1.0)
	d, err := superposedRMSD(B, A)
	require.NoError(Te, err)
	assert.InDelta(Te, 0, d, 1e-8)
}

func TestFitNoReflection(Te *testing.T) {
	_, a := pdbtest.Protein(12).First().CA()
	A := toDense(a)
	M := mat.DenseCopyOf(A)
	for i := 0; i < len(a); i++ {
		M.Set(i, 0, -M.At(i, 0))
	}
	T, err := fit(M, A)
	require.NoError(Te, err)
	assert.InDelta(Te, 1, mat.Det(T.R), 1e-9)
	assert.Greater(Te, rmsd(T.ApplyAll(M), A), 0.1)
}

func TestNativeVariance(Te *testing.T) {
	dir := Te.TempDir()
	amp := func(res int) float64 {
		if res > 10 {
			return 3
		}
		return 0.05
	}
	paths := pdbtest.WriteDecoys(Te, dir, pdbtest.Protein(20), 20, amp, 7)
	N := NewNative(100, 1e-5)
	v, err := N.Variance(context.Background(), paths, dir)
	require.NoError(Te, err)
	require.Len(Te, v, 20)
	maxlow, minhigh := 0.0, math.Inf(1)
	for _, r := range v {
		if r.ResSeq > 10 {
			minhigh = math.Min(minhigh, r.Variance)
		} else {
			maxlow = math.Max(maxlow, r.Variance)
		}
	}
	assert.Less(Te, maxlow, minhigh)
	assert.Equal(Te, "MET", v[0].ResName)
	assert.Equal(Te, 20, len(Variances(v)))
}

func TestNativeDistances(Te *testing.T) {
	dir := Te.TempDir()
	same := pdbtest.WriteDecoys(Te, dir, pdbtest.Protein(15), 5, pdbtest.Uniform(0), 11)
	N := NewNative(0, 0)
	D, err := N.Distances(context.Background(), same, dir)
	require.NoError(Te, err)
	n, _ := D.Dims()
	require.Equal(Te, 5, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Less(Te, D.At(i, j), 0.01)
		}
	}

	noisy := pdbtest.WriteDecoys(Te, Te.TempDir(), pdbtest.Protein(15), 4, pdbtest.Uniform(1), 12)
	D, err = N.Distances(context.Background(), noisy, dir)
	require.NoError(Te, err)
	assert.Greater(Te, D.At(0, 1), 0.1)
	assert.Equal(Te, D.At(0, 1), D.At(1, 0))
	assert.Zero(Te, D.At(2, 2))
}

func TestNativeMismatch(Te *testing.T) {
	dir := Te.TempDir()
	a := filepath.Join(dir, "a.pdb")
	b := filepath.Join(dir, "b.pdb")
	require.NoError(Te, pdb.WriteFile(a, pdbtest.Protein(10)))
	require.NoError(Te, pdb.WriteFile(b, pdbtest.Protein(9)))
	_, err := NewNative(0, 0).Variance(context.Background(), []string{a, b}, dir)
	assert.ErrorIs(Te, err, ample.ErrMetric)
	_, err = NewNative(0, 0).Distances(context.Background(), nil, dir)
	assert.ErrorIs(Te, err, ample.ErrMetric)
}

func TestNativeSuperpose(Te *testing.T) {
	dir := Te.TempDir()
	base := pdbtest.Protein(10)
	paths := pdbtest.WriteDecoys(Te, dir, base, 3, pdbtest.Uniform(0), 5)
	out := filepath.Join(dir, "sup.pdb")
	require.NoError(Te, NewNative(0, 0).Superpose(context.Background(), paths, []int{2, 3, 4, 5, 6}, out))
	s, err := pdb.ReadFile(out)
	require.NoError(Te, err)
	require.Len(Te, s.Models, 3)
	assert.Equal(Te, base.NumAtoms(), s.NumAtoms())
	_, c0 := s.Models[0].CA()
	_, c2 := s.Models[2].CA()
	assert.Less(Te, rmsd(toDense(c0), toDense(c2)), 0.01)
}

func TestParseVariances(Te *testing.T) {
	v, err := ParseVariances(strings.NewReader("RES ATOM RESNAME RESSEQ VARIANCE\nRES 1 MET 5 0.5 0.1\n\n2 ALA 6 1.25 0.2\n"))
	require.NoError(Te, err)
	assert.Equal(Te, []ResidueVariance{{5, "MET", 0.5}, {6, "ALA", 1.25}}, v)
	_, err = ParseVariances(strings.NewReader("header\nRES 1 MET x 0.5\n"))
	assert.Error(Te, err)
	_, err = ParseVariances(strings.NewReader("header only\n"))
	assert.Error(Te, err)
}

const fakeTheseus = `#!/bin/sh
root=$3
printf 'RES ATOM RESNAME RESSEQ VARIANCE\nRES 1 MET 1 0.5\nRES 2 ALA 2 1.25\n' > ${root}_variances.txt
echo sup > ${root}_sup.pdb
`

func TestTheseus(Te *testing.T) {
	dir := Te.TempDir()
	exe := filepath.Join(dir, "theseus")
	require.NoError(Te, os.WriteFile(exe, []byte(fakeTheseus), 0o755))
	T := NewTheseus(exe, NewNative(0, 0))
	work := filepath.Join(dir, "work")
	v, err := T.Variance(context.Background(), []string{"a.pdb", "b.pdb"}, work)
	require.NoError(Te, err)
	assert.Len(Te, v, 2)
	assert.NoFileExists(Te, filepath.Join(work, "theseus_sup.pdb"))
	assert.FileExists(Te, filepath.Join(work, "theseus.log"))

	T.SetCommand("false")
	_, err = T.Variance(context.Background(), []string{"a.pdb"}, work)
	assert.ErrorIs(Te, err, ample.ErrBackend)
}

func TestNew(Te *testing.T) {
	cfg := ample.DefaultConfig().Metric
	p, err := New(cfg, 0, false)
	require.NoError(Te, err)
	assert.IsType(Te, &Native{}, p)
	cfg.Backend = ample.MetricTheseus
	cfg.TheseusExe = "surely-not-theseus-ample"
	_, err = New(cfg, 0, false)
	assert.ErrorIs(Te, err, ample.ErrConfig)
}
