/*
 * model_test.go, part of ample.
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

package ample

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleName(Te *testing.T) {
	assert.Equal(Te, "c1_t60_r2_polyala", EnsembleName(1, "60", 2, PolyAla))
	assert.Equal(Te, "c3_t12.5_r0.5_allatom", EnsembleName(3, "12.5", 0.5, AllAtom))
}

func TestParseTreatment(Te *testing.T) {
	t, err := ParseTreatment(" CAlpha ")
	require.NoError(Te, err)
	assert.Equal(Te, CAlpha, t)
	_, err = ParseTreatment("strip_everything")
	require.Error(Te, err)
	assert.ErrorIs(Te, err, ErrConfig)
}

func TestDecoysFromDir(Te *testing.T) {
	dir := Te.TempDir()
	for _, v := range []string{"b.pdb", "a.pdb", "notes.txt"} {
		require.NoError(Te, os.WriteFile(filepath.Join(dir, v), []byte("END\n"), 0o644))
	}
	models, err := DecoysFromDir(dir)
	require.NoError(Te, err)
	require.Len(Te, models, 2)
	assert.Equal(Te, "a", models[0].Name)
	assert.Equal(Te, "b", models[1].Name)
	require.NoError(Te, CheckModels(models))

	models = append(models, NewDecoyModel(filepath.Join(dir, "missing.pdb")))
	err = CheckModels(models)
	assert.ErrorIs(Te, err, ErrConfig)
	assert.Contains(Te, err.Error(), "missing.pdb")

	_, err = DecoysFromDir(Te.TempDir())
	assert.ErrorIs(Te, err, ErrConfig)
}

func testRecords() []*Record {
	return []*Record{
		{Name: "c2_t20_r1_polyala", ClusterNum: 2, TruncationLevel: 20, RadiusThreshold: 1, SideChainTreatment: PolyAla},
		{Name: "c1_t40_r1_allatom", ClusterNum: 1, TruncationLevel: 40, RadiusThreshold: 1, SideChainTreatment: AllAtom},
		{Name: "c1_t20_r2_reliable", ClusterNum: 1, TruncationLevel: 20, RadiusThreshold: 2, SideChainTreatment: Reliable},
		{Name: "c1_t20_r1_allatom", ClusterNum: 1, TruncationLevel: 20, RadiusThreshold: 1, SideChainTreatment: AllAtom},
		{Name: "c1_t20_r1_polyala", ClusterNum: 1, TruncationLevel: 20, RadiusThreshold: 1, SideChainTreatment: PolyAla},
	}
}

func TestSortRecords(Te *testing.T) {
	recs := testRecords()
	SortRecords(recs)
	names := make([]string, len(recs))
	for i, v := range recs {
		names[i] = v.Name
	}
	assert.Equal(Te, []string{
		"c1_t20_r1_polyala",
		"c1_t20_r1_allatom",
		"c1_t20_r2_reliable",
		"c1_t40_r1_allatom",
		"c2_t20_r1_polyala",
	}, names)
}

func TestEnsembleRecord(Te *testing.T) {
	models := DecoysFromPaths([]string{"/d/m1.pdb", "/d/m2.pdb", "/d/m3.pdb"})
	c := &Cluster{Index: 1, Models: models, Centroid: models[0], Method: "kmeans", ScoreType: "rmsd", NumClusters: 1}
	l := &TruncationLevel{Cluster: c, Index: 2, Level: 40, Variance: 1.5, Residues: []int{1, 2, 3, 4}, Method: Percent}
	s := &Subcluster{Level: l, Radius: 2, Models: models[:2], Reference: models[0]}
	e := &Ensemble{Name: EnsembleName(c.Index, l.Label(), s.Radius, Reliable), Path: "/e/x.pdb", Subcluster: s, Treatment: Reliable, NumAtoms: 40, NumResidues: 4}
	r := e.Record()
	assert.Equal(Te, "c1_t40_r2_reliable", r.Name)
	assert.Equal(Te, 3, r.ClusterNumModels)
	assert.Equal(Te, 2, r.SubclusterNumModels)
	assert.Equal(Te, 4, r.TruncationNumResidue)
	assert.Equal(Te, "m1", r.SubclusterReference)
	assert.Equal(Te, "/d/m1.pdb", r.ClusterCentroid)
	r.TruncationResidues[0] = 99
	assert.Equal(Te, 1, l.Residues[0], "record must not share the residue slice")
}
