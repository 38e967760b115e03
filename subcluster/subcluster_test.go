/*
 * subcluster_test.go, part of ample.
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

package subcluster

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
	"github.com/rmera/ample/pdb/pdbtest"
)

//matrix is a metric.Provider that returns a preset distance matrix.
type matrix struct {
	D *mat.SymDense
}

func (M *matrix) Variance(ctx context.Context, models []string, workdir string) ([]metric.ResidueVariance, error) {
	return nil, nil
}

func (M *matrix) Distances(ctx context.Context, models []string, workdir string) (*mat.SymDense, error) {
	return M.D, nil
}

func (M *matrix) Superpose(ctx context.Context, models []string, residues []int, out string) error {
	return nil
}

func level(n int, centroid int) *ample.TruncationLevel {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = "/decoys/m" + string(rune('a'+i)) + ".pdb"
	}
	c := &ample.Cluster{Index: 1, Models: ample.DecoysFromPaths(paths)}
	if centroid >= 0 {
		c.Centroid = c.Models[centroid]
	}
	return &ample.TruncationLevel{Cluster: c, Index: 1, Level: 20}
}

func subclusterer(Te *testing.T, p metric.Provider, max int, radii ...float64) *Subclusterer {
	S, err := New(ample.SubclusterConfig{RadiusThresholds: radii, MaxEnsembleModels: max}, p)
	require.NoError(Te, err)
	return S
}

//distances from model 0: 0.5 1.5 2.5 0.8 4; the others are far from each other.
func starMatrix() *mat.SymDense {
	d0 := []float64{0, 0.5, 1.5, 2.5, 0.8, 4}
	n := len(d0)
	D := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if i == 0 {
				D.SetSym(i, j, d0[j])
			} else {
				D.SetSym(i, j, 5)
			}
		}
	}
	return D
}

func TestSubclusters(Te *testing.T) {
	l := level(6, 0)
	S := subclusterer(Te, &matrix{starMatrix()}, 0, 3, 1, 2)
	res, err := S.Subclusters(context.Background(), l, make([]string, 6), Te.TempDir())
	require.NoError(Te, err)
	require.Len(Te, res.Subclusters, 3)
	m := l.Cluster.Models
	assert.Equal(Te, []*ample.DecoyModel{m[0], m[1], m[4]}, res.Subclusters[0].Models)
	assert.Equal(Te, 1.0, res.Subclusters[0].Radius)
	assert.Equal(Te, []*ample.DecoyModel{m[0], m[1], m[4], m[2]}, res.Subclusters[1].Models)
	assert.Equal(Te, 5, res.Subclusters[2].NumModels())
	for _, s := range res.Subclusters {
		assert.Same(Te, m[0], s.Reference)
		assert.Same(Te, l, s.Level)
	}
	assert.Empty(Te, res.Skips)
}

func TestSubclusterSizeBounds(Te *testing.T) {
	l := level(6, 0)
	S := subclusterer(Te, &matrix{starMatrix()}, 3, 0.2, 1, 2, 3, 10)
	res, err := S.Subclusters(context.Background(), l, make([]string, 6), Te.TempDir())
	require.NoError(Te, err)
	for _, s := range res.Subclusters {
		assert.GreaterOrEqual(Te, s.NumModels(), 2)
		assert.LessOrEqual(Te, s.NumModels(), 3)
	}
	require.Len(Te, res.Subclusters, 1, "every capped radius beyond 1 gives the same three closest models")
	m := l.Cluster.Models
	assert.Equal(Te, []*ample.DecoyModel{m[0], m[1], m[4]}, res.Subclusters[0].Models)
	assert.Equal(Te, 1, res.Count(SkipDegenerate))
	assert.Equal(Te, 3, res.Count(SkipDuplicate))
}

func TestSubclusterMedoidReference(Te *testing.T) {
	l := level(6, -1)
	assert.Equal(Te, 0, Reference(l.Cluster, starMatrix()))
	l.Cluster.Centroid = ample.NewDecoyModel("/elsewhere/mx.pdb")
	assert.Equal(Te, 0, Reference(l.Cluster, starMatrix()))
	l.Cluster.Centroid = ample.NewDecoyModel(l.Cluster.Models[3].Path)
	assert.Equal(Te, 3, Reference(l.Cluster, starMatrix()))
}

func TestSubclusterMetricFailure(Te *testing.T) {
	D := starMatrix()
	for j := 1; j < 6; j++ {
		D.SetSym(0, j, math.NaN())
	}
	S := subclusterer(Te, &matrix{D}, 0, 1, 2)
	res, err := S.Subclusters(context.Background(), level(6, 0), make([]string, 6), Te.TempDir())
	require.NoError(Te, err)
	assert.Empty(Te, res.Subclusters)
	assert.Equal(Te, 2, res.Count(SkipMetric))
}

func TestSubclusterIdentical(Te *testing.T) {
	dir := Te.TempDir()
	paths := pdbtest.WriteDecoys(Te, dir, pdbtest.Protein(12), 5, pdbtest.Uniform(0), 21)
	c := &ample.Cluster{Index: 1, Models: ample.DecoysFromPaths(paths)}
	l := &ample.TruncationLevel{Cluster: c, Index: 1, Level: 100}
	S := subclusterer(Te, metric.NewNative(0, 0), 30, 1, 2, 3)
	res, err := S.Subclusters(context.Background(), l, paths, dir)
	require.NoError(Te, err)
	require.Len(Te, res.Subclusters, 1)
	assert.Equal(Te, 1.0, res.Subclusters[0].Radius)
	assert.Equal(Te, 5, res.Subclusters[0].NumModels())
	assert.Zero(Te, res.Count(SkipDegenerate))
	assert.Equal(Te, 2, res.Count(SkipDuplicate))
}

func TestSubclusterErrors(Te *testing.T) {
	S := subclusterer(Te, &matrix{starMatrix()}, 0, 1)
	_, err := S.Subclusters(context.Background(), level(6, 0), make([]string, 2), Te.TempDir())
	assert.Error(Te, err)
	_, err = New(ample.SubclusterConfig{}, &matrix{})
	assert.ErrorIs(Te, err, ample.ErrConfig)
}
