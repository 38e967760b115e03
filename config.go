/*
 * config.go, part of ample.
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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//Clustering backends.
const (
	BackendFPC      = "fast_protein_cluster"
	BackendKMedoids = "kmedoids"
	BackendImport   = "import"
)

//Metric backends.
const (
	MetricNative  = "native"
	MetricTheseus = "theseus"
)

//Truncation pruning modes.
const (
	PruneNone   = "none"
	PruneSingle = "single"
)

//ValidClusterMethods maps each clustering backend to the methods it accepts.
var ValidClusterMethods = map[string]map[string]bool{
	BackendFPC:      {"kmeans": true, "hcomplete": true},
	BackendKMedoids: {"kmedoids": true},
	BackendImport:   {"import": true},
}

//ValidScoreTypes maps each clustering backend to the distance scores it accepts.
var ValidScoreTypes = map[string]map[string]bool{
	BackendFPC:      {"rmsd": true, "tm": true},
	BackendKMedoids: {"rmsd": true},
	BackendImport:   {"rmsd": true, "": true},
}

//ValidTruncationMethods is the set of recognized truncation methods.
var ValidTruncationMethods = map[TruncationMethod]bool{Percent: true, Thresh: true, Focussed: true}

//ValidPruning is the set of recognized pruning modes.
var ValidPruning = map[string]bool{"": true, PruneNone: true, PruneSingle: true}

//ValidMetrics is the set of recognized metric backends.
var ValidMetrics = map[string]bool{MetricNative: true, MetricTheseus: true}

//ClusterConfig configures the decoy clusterer.
type ClusterConfig struct {
	Backend        string `yaml:"backend"`
	Method         string `yaml:"method"`
	ScoreType      string `yaml:"score_type"`
	NumClusters    int    `yaml:"num_clusters"`
	MaxClusterSize int    `yaml:"max_cluster_size"`
	Exe            string `yaml:"exe"`
	Seed           int64  `yaml:"seed"` //used by the native backend; 0 means time-based unless benchmarking
}

//TruncationConfig configures the truncator.
type TruncationConfig struct {
	Method      TruncationMethod `yaml:"method"`
	Percent     float64          `yaml:"percent"`
	Pruning     string           `yaml:"pruning"`
	FocusStart  int              `yaml:"focus_start"` //residue sequence numbers, inclusive
	FocusEnd    int              `yaml:"focus_end"`
	MinResidues int              `yaml:"min_residues"`
}

//SubclusterConfig configures the subclusterer.
type SubclusterConfig struct {
	RadiusThresholds  []float64 `yaml:"radius_thresholds"`
	MaxEnsembleModels int       `yaml:"max_ensemble_models"` //0 means no cap
}

//TreatmentConfig restricts the side-chain treatments applied to each subcluster.
type TreatmentConfig struct {
	SideChainTreatments []string `yaml:"side_chain_treatments,omitempty"`
}

//MetricConfig configures the structural metric provider.
type MetricConfig struct {
	Backend       string  `yaml:"backend"`
	TheseusExe    string  `yaml:"theseus_exe"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

//ImportConfig points to pre-built clusters or ensembles.
type ImportConfig struct {
	ClusterDir   string `yaml:"cluster_dir"`
	EnsemblesDir string `yaml:"ensembles_dir"`
}

//Config is the full configuration of an ensembling run.
type Config struct {
	WorkDir          string           `yaml:"work_dir"`
	ModelsDir        string           `yaml:"models_dir"`
	NProc            int              `yaml:"nproc"`
	Benchmark        bool             `yaml:"benchmark"`
	KeepScratch      bool             `yaml:"keep_scratch"`
	CompressMetadata bool             `yaml:"compress_metadata"`
	PlotVariance     bool             `yaml:"plot_variance"`
	JobTimeout       time.Duration    `yaml:"job_timeout"`
	Cluster          ClusterConfig    `yaml:"cluster"`
	Truncation       TruncationConfig `yaml:"truncation"`
	Subcluster       SubclusterConfig `yaml:"subcluster"`
	Treatment        TreatmentConfig  `yaml:"treatment"`
	Metric           MetricConfig     `yaml:"metric"`
	Import           ImportConfig     `yaml:"import"`
}

//DefaultConfig returns reasonable options for a run on the local machine.
func DefaultConfig() *Config {
	c := new(Config)
	c.WorkDir = "."
	c.NProc = runtime.NumCPU()
	c.JobTimeout = 2 * time.Hour
	c.Cluster = ClusterConfig{Backend: BackendFPC, Method: "kmeans", ScoreType: "rmsd", NumClusters: 1, MaxClusterSize: 200, Exe: "fast_protein_cluster"}
	c.Truncation = TruncationConfig{Method: Percent, Percent: 5, Pruning: PruneNone, MinResidues: 3}
	c.Subcluster = SubclusterConfig{RadiusThresholds: []float64{1, 2, 3}, MaxEnsembleModels: 30}
	c.Metric = MetricConfig{Backend: MetricNative, TheseusExe: "theseus", MaxIterations: 50, Tolerance: 1e-4}
	return c
}

//LoadConfig reads a YAML configuration. Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, NewConfigError("parsing configuration %s: %s", path, err.Error())
	}
	return c, nil
}

//Write saves the configuration as YAML.
func (C *Config) Write(path string) error {
	data, err := yaml.Marshal(C)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

//Validate checks the names and ranges of every option. Every problem is a configuration error.
func (C *Config) Validate() error {
	if C.WorkDir == "" {
		return NewConfigError("no working directory")
	}
	if C.NProc < 1 {
		return NewConfigError("nproc must be at least 1, got %d", C.NProc)
	}
	if C.JobTimeout < 0 {
		return NewConfigError("negative job timeout %s", C.JobTimeout)
	}
	if err := C.Cluster.Validate(); err != nil {
		return err
	}
	if err := C.Truncation.Validate(); err != nil {
		return err
	}
	if err := C.Subcluster.Validate(); err != nil {
		return err
	}
	if _, err := C.Treatment.Treatments(); err != nil {
		return err
	}
	if !ValidMetrics[C.Metric.Backend] {
		return NewConfigError("unknown metric backend %q", C.Metric.Backend)
	}
	if C.Metric.MaxIterations < 1 || C.Metric.Tolerance <= 0 {
		return NewConfigError("metric needs max_iterations >= 1 and tolerance > 0")
	}
	if C.Import.ClusterDir != "" && C.Import.EnsemblesDir != "" {
		return NewConfigError("cannot import both clusters and ensembles")
	}
	return nil
}

//Validate checks the clustering options.
func (C *ClusterConfig) Validate() error {
	methods, ok := ValidClusterMethods[C.Backend]
	if !ok {
		return NewConfigError("unknown clustering backend %q", C.Backend)
	}
	if !methods[C.Method] {
		return NewConfigError("unknown cluster method %q for backend %s", C.Method, C.Backend)
	}
	if !ValidScoreTypes[C.Backend][C.ScoreType] {
		return NewConfigError("unknown score type %q for backend %s", C.ScoreType, C.Backend)
	}
	if C.NumClusters < 1 {
		return NewConfigError("num_clusters must be at least 1, got %d", C.NumClusters)
	}
	if C.MaxClusterSize < 2 {
		return NewConfigError("max_cluster_size must be at least 2, got %d", C.MaxClusterSize)
	}
	return nil
}

//Validate checks the truncation options.
func (T *TruncationConfig) Validate() error {
	if !ValidTruncationMethods[T.Method] {
		return NewConfigError("unknown truncation method %q", T.Method)
	}
	if T.Percent <= 0 || T.Percent > 100 {
		return NewConfigError("truncation percent must be in (0,100], got %g", T.Percent)
	}
	if !ValidPruning[T.Pruning] {
		return NewConfigError("unknown truncation pruning %q", T.Pruning)
	}
	if T.Method == Focussed && (T.FocusEnd < T.FocusStart || (T.FocusStart == 0 && T.FocusEnd == 0)) {
		return NewConfigError("focussed truncation needs a region, got %d-%d", T.FocusStart, T.FocusEnd)
	}
	if T.MinResidues < 1 {
		return NewConfigError("min_residues must be at least 1, got %d", T.MinResidues)
	}
	return nil
}

//Validate checks the subclustering options.
func (S *SubclusterConfig) Validate() error {
	if len(S.RadiusThresholds) == 0 {
		return NewConfigError("no subclustering radius thresholds")
	}
	for _, v := range S.RadiusThresholds {
		if v <= 0 {
			return NewConfigError("radius thresholds must be positive, got %g", v)
		}
	}
	if S.MaxEnsembleModels < 0 || S.MaxEnsembleModels == 1 {
		return NewConfigError("max_ensemble_models must be 0 (no cap) or at least 2, got %d", S.MaxEnsembleModels)
	}
	return nil
}

//Radii returns the radius thresholds sorted in increasing order, without duplicates.
func (S *SubclusterConfig) Radii() []float64 {
	r := append([]float64(nil), S.RadiusThresholds...)
	sort.Float64s(r)
	ret := r[:0]
	for i, v := range r {
		if i > 0 && v == r[i-1] {
			continue
		}
		ret = append(ret, v)
	}
	return ret
}

//Treatments returns the configured treatments in table order, or the defaults if none are given.
func (T *TreatmentConfig) Treatments() ([]Treatment, error) {
	if len(T.SideChainTreatments) == 0 {
		return append([]Treatment(nil), DefaultTreatments...), nil
	}
	seen := make(map[Treatment]bool)
	for _, v := range T.SideChainTreatments {
		t, err := ParseTreatment(v)
		if err != nil {
			return nil, err
		}
		seen[t] = true
	}
	ret := make([]Treatment, 0, len(seen))
	for _, v := range Treatments {
		if seen[v] {
			ret = append(ret, v)
		}
	}
	return ret, nil
}

//EnsemblesDir is where the final ensemble files are written.
func (C *Config) EnsemblesDir() string {
	return filepath.Join(C.WorkDir, "ensembles")
}

//ScratchDir is the root of the per-branch working directories.
func (C *Config) ScratchDir() string {
	return filepath.Join(C.WorkDir, "ensemble_workdir")
}

//Seed returns the random seed for the clustering backends. Benchmark runs always use 1.
func (C *Config) Seed() int64 {
	if C.Benchmark {
		return 1
	}
	if C.Cluster.Seed != 0 {
		return C.Cluster.Seed
	}
	return time.Now().UnixNano()
}
