/*
 * ensembler.go, part of ample.
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

//Package ensemble drives the whole ensembling pipeline: clustering, truncation,
//subclustering and side-chain treatment, and keeps the metadata of the results.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rmera/ample"
	"github.com/rmera/ample/cluster"
	"github.com/rmera/ample/job"
	"github.com/rmera/ample/metric"
	"github.com/rmera/ample/pdb"
	"github.com/rmera/ample/report"
	"github.com/rmera/ample/sidechain"
	"github.com/rmera/ample/subcluster"
	"github.com/rmera/ample/truncate"
)

//Ensembler runs the pipeline for one configuration.
type Ensembler struct {
	RunID        string
	cfg          *ample.Config
	metric       metric.Provider
	clusterer    cluster.Clusterer
	truncator    *truncate.Truncator
	subclusterer *subcluster.Subclusterer
	treatments   []ample.Treatment
	state        State
}

//New validates cfg and builds every stage of the pipeline. Any problem is
//a configuration error and nothing is run.
func New(cfg *ample.Config) (*Ensembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	E := &Ensembler{RunID: uuid.NewString(), cfg: cfg, state: Init}
	E.treatments, _ = cfg.Treatment.Treatments()
	var err error
	if E.metric, err = metric.New(cfg.Metric, cfg.JobTimeout, cfg.KeepScratch); err != nil {
		return nil, err
	}
	if cfg.Import.EnsemblesDir == "" {
		O := &cluster.Options{Config: cfg.Cluster, WorkDir: filepath.Join(cfg.ScratchDir(), "clustering"), NProc: cfg.NProc,
			Benchmark: cfg.Benchmark, Seed: cfg.Seed(), Timeout: cfg.JobTimeout, Metric: E.metric}
		if cfg.Import.ClusterDir != "" {
			O.Config = ample.ClusterConfig{Backend: ample.BackendImport, Method: "import", NumClusters: 1, MaxClusterSize: cfg.Cluster.MaxClusterSize}
			O.ImportDir = cfg.Import.ClusterDir
		}
		if E.clusterer, err = cluster.New(O); err != nil {
			return nil, err
		}
	}
	if E.truncator, err = truncate.New(cfg.Truncation, E.metric); err != nil {
		return nil, err
	}
	if E.subclusterer, err = subcluster.New(cfg.Subcluster, E.metric); err != nil {
		return nil, err
	}
	return E, nil
}

//State returns the current stage of the run.
func (E *Ensembler) State() State {
	return E.state
}

func (E *Ensembler) enter(s State) {
	if !E.state.CanGo(s) {
		log.Warnf("ensembler: unexpected transition from %s to %s", E.state, s)
	}
	log.WithField("run", E.RunID).Debugf("%s -> %s", E.state, s)
	E.state = s
}

//Stats counts what each stage produced and skipped.
type Stats struct {
	Clusters      int
	Levels        int
	SkippedLevels int //too few residues
	Subclusters   int
	Degenerate    int //fewer than two models
	Duplicate     int //same models as a smaller radius
	MetricSkips   int //radii that couldn't be measured or superposed
}

func (S *Stats) add(o Stats) {
	S.Levels += o.Levels
	S.SkippedLevels += o.SkippedLevels
	S.Subclusters += o.Subclusters
	S.Degenerate += o.Degenerate
	S.Duplicate += o.Duplicate
	S.MetricSkips += o.MetricSkips
}

//branch is the processing of one cluster. It is only touched by its own goroutine.
type branch struct {
	cluster  *ample.Cluster
	name     string
	state    State
	records  []*ample.Record
	failures []BranchFailure
	stats    Stats
}

func (b *branch) enter(s State) {
	if !b.state.CanGo(s) {
		log.Warnf("%s: unexpected transition from %s to %s", b.name, b.state, s)
	}
	b.state = s
}

func (b *branch) fail(name string, err error) {
	f := BranchFailure{Branch: name, Stage: b.state, Reason: err.Error(), Log: ample.LogOf(err)}
	log.WithField("cluster", b.cluster.Index).Warn(f.String())
	b.failures = append(b.failures, f)
}

//Run processes the models and returns the summary of the run. The summary is returned
//even when the run fails. Configuration errors are returned as they are; a run that ends
//without ensembles returns a *RunError.
func (E *Ensembler) Run(ctx context.Context, models []*ample.DecoyModel) (*Summary, error) {
	S := &Summary{RunID: E.RunID, WorkDir: E.cfg.WorkDir}
	E.state = Init
	for _, d := range []string{E.cfg.WorkDir, E.cfg.EnsemblesDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			E.state = Failed
			return S, ample.NewConfigError("cannot create directory %s: %s", d, err.Error())
		}
	}
	if E.cfg.Import.EnsemblesDir != "" {
		E.enter(Import)
		recs, err := ImportEnsembles(E.cfg.Import.EnsemblesDir)
		if err != nil {
			E.state = Failed
			return S, err
		}
		return E.finish(S, recs)
	}
	var clusters []*ample.Cluster
	var err error
	if E.cfg.Import.ClusterDir != "" {
		E.enter(Import)
		clusters, err = E.clusterer.Cluster(ctx, nil, 1)
	} else {
		if err := ample.CheckModels(models); err != nil {
			E.state = Failed
			return S, err
		}
		E.enter(Clustering)
		clusters, err = E.clusterer.Cluster(ctx, models, E.cfg.Cluster.NumClusters)
	}
	if err != nil {
		if errors.Is(err, ample.ErrConfig) {
			E.state = Failed
			return S, err
		}
		S.Failures = append(S.Failures, BranchFailure{Branch: "clustering", Stage: E.state, Reason: err.Error(), Log: ample.LogOf(err)})
		return E.finish(S, nil)
	}
	S.Stats.Clusters = len(clusters)
	log.WithField("run", E.RunID).Infof("%d cluster(s) with %s", len(clusters), E.clusterer.Name())
	E.enter(Truncating)
	branches := make([]*branch, len(clusters))
	tasks := make([]job.Task, len(clusters))
	for i, c := range clusters {
		b := &branch{cluster: c, name: fmt.Sprintf("cluster %d", c.Index), state: Init}
		branches[i] = b
		tasks[i] = func(ctx context.Context) error {
			E.runBranch(ctx, b)
			return nil
		}
	}
	errs := job.NewPool(E.cfg.NProc).Run(ctx, tasks)
	recs := make([]*ample.Record, 0)
	for i, b := range branches {
		if errs[i] != nil {
			b.fail(b.name, errs[i])
		}
		S.Stats.add(b.stats)
		S.Failures = append(S.Failures, b.failures...)
		recs = append(recs, b.records...)
	}
	return E.finish(S, recs)
}

//finish sorts and saves the metadata and writes the sentinel, or fails the run if
//there is nothing to save.
func (E *Ensembler) finish(S *Summary, recs []*ample.Record) (*Summary, error) {
	ample.SortRecords(recs)
	S.Records = recs
	if len(recs) == 0 {
		E.state = Failed
		S.State = Failed
		return S, &RunError{WorkDir: E.cfg.WorkDir, Failures: S.Failures}
	}
	path, err := WriteRecords(filepath.Join(E.cfg.WorkDir, MetadataFile), recs, E.cfg.CompressMetadata)
	if err != nil {
		E.state = Failed
		S.State = Failed
		return S, fmt.Errorf("saving metadata: %w", err)
	}
	S.MetadataFile = path
	if err := WriteSentinel(E.cfg.WorkDir, len(recs)); err != nil {
		E.state = Failed
		S.State = Failed
		return S, fmt.Errorf("writing sentinel: %w", err)
	}
	if !E.cfg.KeepScratch && len(S.Failures) == 0 {
		if err := os.RemoveAll(E.cfg.ScratchDir()); err != nil {
			log.Warnf("couldn't remove %s: %v", E.cfg.ScratchDir(), err)
		}
	}
	E.enter(Done)
	S.State = Done
	return S, nil
}

//runBranch truncates one cluster and goes through its levels in increasing order.
func (E *Ensembler) runBranch(ctx context.Context, b *branch) {
	c := b.cluster
	dir := filepath.Join(E.cfg.ScratchDir(), fmt.Sprintf("cluster_%d", c.Index))
	b.enter(Truncating)
	res, err := E.truncator.Levels(ctx, c, filepath.Join(dir, "variance"))
	if err != nil {
		b.fail(b.name, err)
		return
	}
	b.stats.Levels += len(res.Levels)
	b.stats.SkippedLevels += res.Skipped
	log.WithField("cluster", c.Index).Infof("%d truncation level(s), %d skipped", len(res.Levels), res.Skipped)
	if E.cfg.PlotVariance {
		thresholds := make([]float64, len(res.Levels))
		for i, l := range res.Levels {
			thresholds[i] = l.Variance
		}
		plotfile := filepath.Join(E.cfg.WorkDir, fmt.Sprintf("cluster_%d_variance.png", c.Index))
		if err := report.VarianceProfile(res.Variances, thresholds, fmt.Sprintf("Cluster %d", c.Index), plotfile); err != nil {
			log.WithField("cluster", c.Index).Warnf("variance plot: %v", err)
		}
	}
	for _, l := range res.Levels {
		if err := ctx.Err(); err != nil {
			b.fail(b.name, err)
			return
		}
		E.runLevel(ctx, b, l, filepath.Join(dir, "t"+l.Label()))
	}
}

//runLevel subclusters one truncation level and writes the ensembles of each subcluster.
//Failures are confined to the level.
func (E *Ensembler) runLevel(ctx context.Context, b *branch, l *ample.TruncationLevel, dir string) {
	c := l.Cluster
	name := fmt.Sprintf("c%d_t%s", c.Index, l.Label())
	fields := log.Fields{"cluster": c.Index, "level": l.Label()}
	b.enter(Subclustering)
	truncated, err := TruncateModels(c.Models, l.Residues, filepath.Join(dir, "models"))
	if err != nil {
		b.fail(name, err)
		return
	}
	res, err := E.subclusterer.Subclusters(ctx, l, truncated, dir)
	if err != nil {
		b.fail(name, err)
		return
	}
	b.stats.Subclusters += len(res.Subclusters)
	b.stats.Degenerate += res.Count(subcluster.SkipDegenerate)
	b.stats.Duplicate += res.Count(subcluster.SkipDuplicate)
	b.stats.MetricSkips += res.Count(subcluster.SkipMetric)
	byModel := make(map[*ample.DecoyModel]string, len(truncated))
	for i, m := range c.Models {
		byModel[m] = truncated[i]
	}
	for _, sc := range res.Subclusters {
		radius := strconv.FormatFloat(sc.Radius, 'f', -1, 64)
		rdir := filepath.Join(dir, "r"+radius)
		if err := os.MkdirAll(rdir, 0o755); err != nil {
			b.fail(name, err)
			return
		}
		paths := make([]string, len(sc.Models))
		for i, m := range sc.Models {
			paths[i] = byModel[m]
		}
		superposed := filepath.Join(rdir, "superposed.pdb")
		if err := E.metric.Superpose(ctx, paths, nil, superposed); err != nil {
			log.WithFields(fields).WithField("radius", sc.Radius).Warnf("skipping radius: %v", err)
			b.stats.MetricSkips++
			continue
		}
		b.enter(SideChainApply)
		for _, t := range E.treatments {
			ename := ample.EnsembleName(c.Index, l.Label(), sc.Radius, t)
			out := filepath.Join(E.cfg.EnsemblesDir(), ename+".pdb")
			atoms, residues, err := sidechain.ApplyFile(superposed, out, t)
			if err != nil {
				b.fail(ename, err)
				continue
			}
			e := &ample.Ensemble{Name: ename, Path: out, Subcluster: sc, Treatment: t, NumAtoms: atoms, NumResidues: residues}
			r := e.Record()
			r.TruncationPercent = E.cfg.Truncation.Percent
			r.TruncationPruning = E.cfg.Truncation.Pruning
			b.records = append(b.records, r)
			log.WithFields(fields).WithField("radius", sc.Radius).Debugf("ensemble %s: %d models, %d atoms", ename, sc.NumModels(), atoms)
		}
		b.enter(Subclustering)
	}
}

//TruncateModels writes a copy of each model with only the given residues to dir, and
//returns the paths in the order of models.
func TruncateModels(models []*ample.DecoyModel, residues []int, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	ret := make([]string, len(models))
	for i, m := range models {
		s, err := pdb.ReadFile(m.Path)
		if err != nil {
			return nil, ample.NewMetricError(err, "reading model %s", m.Path)
		}
		ret[i] = filepath.Join(dir, fmt.Sprintf("%03d_%s.pdb", i+1, m.Name))
		if err := pdb.WriteFile(ret[i], s.SelectResidues(residues)); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
