/*
 * ensemble_test.go, part of ample.
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

package ensemble

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/ample"
	"github.com/rmera/ample/pdb"
	"github.com/rmera/ample/pdb/pdbtest"
)

//testConfig clusters natively into one cluster, truncates at 50 and 100 percent
//and subclusters at radii 1 and 2.
func testConfig(Te *testing.T) *ample.Config {
	Te.Helper()
	c := ample.DefaultConfig()
	c.WorkDir = filepath.Join(Te.TempDir(), "run")
	c.NProc = 2
	c.Benchmark = true
	c.Cluster = ample.ClusterConfig{Backend: ample.BackendKMedoids, Method: "kmedoids", ScoreType: "rmsd", NumClusters: 1, MaxClusterSize: 200}
	c.Truncation.Percent = 50
	c.Subcluster.RadiusThresholds = []float64{1, 2}
	return c
}

//decoys are tightly packed: every pair is well under 1 A apart.
func decoys(Te *testing.T, n int) []*ample.DecoyModel {
	Te.Helper()
	dir := filepath.Join(Te.TempDir(), "decoys")
	require.NoError(Te, os.MkdirAll(dir, 0o755))
	return ample.DecoysFromPaths(pdbtest.WriteDecoys(Te, dir, pdbtest.Protein(20), n, pdbtest.Uniform(0.3), 7))
}

func writeExe(Te *testing.T, content string) string {
	Te.Helper()
	p := filepath.Join(Te.TempDir(), "fake.sh")
	require.NoError(Te, os.WriteFile(p, []byte(content), 0o755))
	return p
}

func TestRun(Te *testing.T) {
	cfg := testConfig(Te)
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), decoys(Te, 8))
	require.NoError(Te, err)
	assert.Equal(Te, Done, S.State)
	assert.Equal(Te, Done, E.State())
	assert.Empty(Te, S.Failures)

	//2 levels x 1 radius x 3 treatments; the second radius has the same models.
	require.Len(Te, S.Records, 6)
	assert.Equal(Te, 1, S.Stats.Clusters)
	assert.Equal(Te, 2, S.Stats.Levels)
	assert.Equal(Te, 2, S.Stats.Subclusters)
	assert.Equal(Te, 2, S.Stats.Duplicate)
	assert.Zero(Te, S.Stats.Degenerate)

	want := []ample.Treatment{ample.PolyAla, ample.Reliable, ample.AllAtom}
	for i, r := range S.Records {
		if i < 3 {
			assert.Equal(Te, 50.0, r.TruncationLevel)
			assert.Equal(Te, 10, r.NumResidues)
		} else {
			assert.Equal(Te, 100.0, r.TruncationLevel)
			assert.Equal(Te, 20, r.NumResidues)
		}
		assert.Equal(Te, want[i%3], r.SideChainTreatment)
		assert.Equal(Te, 8, r.SubclusterNumModels)
		assert.Equal(Te, 1.0, r.RadiusThreshold)
		assert.Equal(Te, "kmedoids", r.ClusterMethod)
		assert.Equal(Te, 50.0, r.TruncationPercent)
		assert.Equal(Te, filepath.Join(cfg.EnsemblesDir(), r.Name+".pdb"), r.Path)
		atoms, residues, err := pdb.CountFile(r.Path)
		require.NoError(Te, err)
		assert.Equal(Te, r.NumAtoms, atoms)
		assert.Equal(Te, r.NumResidues, residues)
		s, err := pdb.ReadFile(r.Path)
		require.NoError(Te, err)
		assert.Len(Te, s.Models, 8)
	}
	assert.Equal(Te, "c1_t50_r1_polyala", S.Records[0].Name)

	assert.True(Te, Succeeded(cfg.WorkDir))
	assert.Equal(Te, filepath.Join(cfg.WorkDir, MetadataFile), S.MetadataFile)
	recs, err := ReadRecords(S.MetadataFile)
	require.NoError(Te, err)
	assert.Equal(Te, S.Records, recs)
	assert.NoDirExists(Te, cfg.ScratchDir())

	b := new(strings.Builder)
	require.NoError(Te, S.Write(b))
	assert.Contains(Te, b.String(), "2 duplicate")
	assert.Contains(Te, b.String(), S.RunID)
}

func TestRunCompressedKeepScratch(Te *testing.T) {
	cfg := testConfig(Te)
	cfg.CompressMetadata = true
	cfg.KeepScratch = true
	cfg.Treatment.SideChainTreatments = []string{"calpha"}
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), decoys(Te, 5))
	require.NoError(Te, err)
	require.Len(Te, S.Records, 2)
	assert.True(Te, strings.HasSuffix(S.MetadataFile, ".zst"))
	found, err := FindRecords(cfg.WorkDir)
	require.NoError(Te, err)
	assert.Equal(Te, S.MetadataFile, found)
	recs, err := ReadRecords(found)
	require.NoError(Te, err)
	assert.Equal(Te, S.Records, recs)
	assert.Equal(Te, S.Records[0].NumResidues, S.Records[0].NumAtoms)
	assert.DirExists(Te, filepath.Join(cfg.ScratchDir(), "cluster_1", "t50", "r1"))
}

func TestRunNoEnsembles(Te *testing.T) {
	cfg := testConfig(Te)
	cfg.Subcluster.RadiusThresholds = []float64{0.001}
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), decoys(Te, 4))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ErrNoEnsembles))
	var re *RunError
	require.True(Te, errors.As(err, &re))
	assert.Contains(Te, err.Error(), cfg.WorkDir)
	assert.Equal(Te, Failed, S.State)
	assert.Equal(Te, 2, S.Stats.Degenerate)
	assert.False(Te, Succeeded(cfg.WorkDir))
}

func TestRunBackendFailure(Te *testing.T) {
	cfg := testConfig(Te)
	cfg.Metric.Backend = ample.MetricTheseus
	cfg.Metric.TheseusExe = writeExe(Te, "#!/bin/sh\necho broken\nexit 3\n")
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), decoys(Te, 4))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ErrNoEnsembles))
	require.Len(Te, S.Failures, 1)
	f := S.Failures[0]
	assert.Equal(Te, "cluster 1", f.Branch)
	assert.Equal(Te, Truncating, f.Stage)
	assert.NotEmpty(Te, f.Log)
	assert.FileExists(Te, f.Log)
	assert.DirExists(Te, cfg.ScratchDir())
}

func TestRunTooManyClusters(Te *testing.T) {
	dir := Te.TempDir()
	marker := filepath.Join(dir, "ran")
	cfg := testConfig(Te)
	cfg.Cluster = ample.ClusterConfig{Backend: ample.BackendFPC, Method: "kmeans", ScoreType: "rmsd", NumClusters: 6, MaxClusterSize: 200,
		Exe: writeExe(Te, "#!/bin/sh\ntouch "+marker+"\n")}
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), decoys(Te, 8))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ample.ErrConfig))
	assert.False(Te, errors.Is(err, ErrNoEnsembles))
	assert.Empty(Te, S.Records)
	assert.Equal(Te, Failed, E.State())
	assert.NoFileExists(Te, marker)
	assert.NoDirExists(Te, filepath.Join(cfg.ScratchDir(), "cluster_1"))
}

func TestNewBadConfig(Te *testing.T) {
	cfg := testConfig(Te)
	cfg.Truncation.Method = "sideways"
	_, err := New(cfg)
	assert.True(Te, errors.Is(err, ample.ErrConfig))

	cfg = testConfig(Te)
	cfg.Metric.Backend = ample.MetricTheseus
	cfg.Metric.TheseusExe = "/no/such/theseus"
	_, err = New(cfg)
	assert.True(Te, errors.Is(err, ample.ErrConfig))
}

func TestRunMissingModels(Te *testing.T) {
	E, err := New(testConfig(Te))
	require.NoError(Te, err)
	_, err = E.Run(context.Background(), ample.DecoysFromPaths([]string{"/no/such/model.pdb"}))
	assert.True(Te, errors.Is(err, ample.ErrConfig))
}

func TestRunImportClusters(Te *testing.T) {
	models := decoys(Te, 4)
	cfg := testConfig(Te)
	cfg.Import.ClusterDir = filepath.Dir(models[0].Path)
	cfg.Treatment.SideChainTreatments = []string{"allatom"}
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), nil)
	require.NoError(Te, err)
	require.Len(Te, S.Records, 2)
	for _, r := range S.Records {
		assert.Equal(Te, "import", r.ClusterMethod)
		assert.Equal(Te, models[0].Path, r.ClusterCentroid)
		assert.Equal(Te, 4, r.ClusterNumModels)
	}
}

func TestRunImportClustersCapped(Te *testing.T) {
	models := decoys(Te, 5)
	cfg := testConfig(Te)
	cfg.Import.ClusterDir = filepath.Dir(models[0].Path)
	cfg.Cluster.MaxClusterSize = 3
	cfg.Treatment.SideChainTreatments = []string{"calpha"}
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), nil)
	require.NoError(Te, err)
	require.NotEmpty(Te, S.Records)
	for _, r := range S.Records {
		assert.Equal(Te, 3, r.ClusterNumModels)
		assert.LessOrEqual(Te, r.SubclusterNumModels, 3)
	}
}

func TestRunImportEnsembles(Te *testing.T) {
	dir := Te.TempDir()
	pdbtest.WriteDecoys(Te, dir, pdbtest.Protein(6), 2, pdbtest.Uniform(0.1), 3)
	cfg := testConfig(Te)
	cfg.Import.EnsemblesDir = dir
	E, err := New(cfg)
	require.NoError(Te, err)
	S, err := E.Run(context.Background(), nil)
	require.NoError(Te, err)
	require.Len(Te, S.Records, 2)
	assert.Equal(Te, "decoy_01", S.Records[0].Name)
	assert.Equal(Te, "import", S.Records[0].ClusterMethod)
	assert.Equal(Te, 6, S.Records[0].NumResidues)
	assert.Equal(Te, 39, S.Records[0].NumAtoms)
	assert.True(Te, Succeeded(cfg.WorkDir))

	_, err = ImportEnsembles(Te.TempDir())
	assert.True(Te, errors.Is(err, ample.ErrConfig))
}

func TestStates(Te *testing.T) {
	assert.True(Te, Init.CanGo(Clustering))
	assert.True(Te, Init.CanGo(Import))
	assert.True(Te, Clustering.CanGo(Truncating))
	assert.True(Te, Subclustering.CanGo(SideChainApply))
	assert.True(Te, SideChainApply.CanGo(Subclustering))
	assert.True(Te, Truncating.CanGo(Failed))
	assert.False(Te, Init.CanGo(Done))
	assert.False(Te, Clustering.CanGo(SideChainApply))
	assert.False(Te, Done.CanGo(Clustering))
	assert.False(Te, Failed.CanGo(Init))
	assert.Equal(Te, "side_chain_apply", SideChainApply.String())
	assert.Equal(Te, "state(42)", State(42).String())
}

func TestDescriptor(Te *testing.T) {
	cfg := testConfig(Te)
	models := decoys(Te, 4)
	R := NewRunDescriptor(cfg, models)
	require.NoError(Te, os.MkdirAll(cfg.WorkDir, 0o755))
	path := filepath.Join(cfg.WorkDir, DescriptorFile)
	require.NoError(Te, R.Write(path))

	L, err := LoadRunDescriptor(path)
	require.NoError(Te, err)
	assert.Equal(Te, R.ID, L.ID)
	assert.Equal(Te, R.Models, L.Models)
	assert.Equal(Te, cfg, L.Config)
	assert.True(Te, R.Created.Equal(L.Created))

	S, err := L.Execute(context.Background())
	require.NoError(Te, err)
	assert.Equal(Te, R.ID, S.RunID)
	assert.True(Te, Succeeded(cfg.WorkDir))

	script := filepath.Join(cfg.WorkDir, "submit.sh")
	require.NoError(Te, WriteSubmitScript(script, "/usr/local/bin/ample", path))
	data, err := os.ReadFile(script)
	require.NoError(Te, err)
	assert.True(Te, strings.HasPrefix(string(data), "#!/bin/sh\n"))
	assert.Contains(Te, string(data), `"/usr/local/bin/ample" subjob "`+path+`"`)
}

func TestLoadBadDescriptor(Te *testing.T) {
	dir := Te.TempDir()
	p := filepath.Join(dir, "bad.json")
	require.NoError(Te, os.WriteFile(p, []byte(`{"id":"nope","config":{}}`), 0o644))
	_, err := LoadRunDescriptor(p)
	assert.True(Te, errors.Is(err, ample.ErrConfig))
	require.NoError(Te, os.WriteFile(p, []byte(`{"id":`), 0o644))
	_, err = LoadRunDescriptor(p)
	assert.True(Te, errors.Is(err, ample.ErrConfig))
	_, err = LoadRunDescriptor(filepath.Join(dir, "missing.json"))
	assert.Error(Te, err)
}
