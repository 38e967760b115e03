/*
 * report_test.go, part of ample.
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
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
)

func records() []*ample.Record {
	rec := func(c int, l, r float64, t ample.Treatment) *ample.Record {
		return &ample.Record{Name: ample.EnsembleName(c, strconv.FormatFloat(l, 'f', -1, 64), r, t),
			ClusterNum: c, ClusterMethod: "kmeans", ClusterNumModels: 10, TruncationLevel: l, TruncationVariance: l / 10,
			TruncationNumResidue: int(l), RadiusThreshold: r, SubclusterNumModels: int(r) + 1, SideChainTreatment: t}
	}
	return []*ample.Record{
		rec(2, 100, 1, ample.PolyAla),
		rec(1, 40, 2, ample.AllAtom),
		rec(1, 20, 1, ample.AllAtom),
		rec(1, 20, 1, ample.PolyAla),
		rec(1, 20, 3, ample.Reliable),
	}
}

func TestCollate(Te *testing.T) {
	recs := records()
	clusters := Collate(recs)
	require.Len(Te, clusters, 2)
	c := clusters[0]
	assert.Equal(Te, 1, c.Num)
	require.Len(Te, c.Levels, 2)
	assert.Equal(Te, 20.0, c.Levels[0].Level)
	require.Len(Te, c.Levels[0].Radii, 2)
	assert.Len(Te, c.Levels[0].Radii[0].Ensembles, 2)
	assert.Equal(Te, 4, c.Levels[0].Radii[1].NumModels)
	assert.Equal(Te, 2, clusters[1].Num)
	assert.Equal(Te, 2, recs[0].ClusterNum, "the input order must be kept")
}

func TestSummary(Te *testing.T) {
	var b bytes.Buffer
	require.NoError(Te, Summary(&b, records()))
	out := b.String()
	assert.True(Te, strings.HasPrefix(out, "5 ensembles\n"))
	assert.Contains(Te, out, "Cluster  Method")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(Te, "allatom    2", lines[len(lines)-1])
	counts, keys := Counts(records())
	assert.Equal(Te, []ample.Treatment{ample.PolyAla, ample.Reliable, ample.AllAtom}, keys)
	assert.Equal(Te, 2, counts[ample.AllAtom])
}

func TestVarianceProfile(Te *testing.T) {
	v := []metric.ResidueVariance{{ResSeq: 1, Variance: 0.2}, {ResSeq: 2, Variance: 1.5}, {ResSeq: 3, Variance: 0.7}}
	out := filepath.Join(Te.TempDir(), "variance.png")
	require.NoError(Te, VarianceProfile(v, []float64{0.5, 1}, "cluster 1", out))
	assert.FileExists(Te, out)
	assert.Error(Te, VarianceProfile(nil, nil, "empty", out))
}
