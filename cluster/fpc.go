/*
 * fpc.go, part of ample.
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

package cluster

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rmera/ample"
	"github.com/rmera/ample/job"
)

//FPCMaxClusters is the number of clusters fast_protein_cluster always reports.
const FPCMaxClusters = 5

//Output files of fast_protein_cluster.
const (
	fpcList     = "files.list"
	fpcClusters = "cluster_output.clusters"
	fpcStats    = "cluster_output.cluster.stats"
	fpcMatrix   = "matrix.txt"
)

//FPC runs fast_protein_cluster.
type FPC struct {
	command        string
	method         string
	scoreType      string
	nCPU           int
	benchmark      bool
	workdir        string
	maxClusterSize int
	Timeout        time.Duration
}

//NewFPC returns a handle for fast_protein_cluster. The executable must exist.
func NewFPC(O *Options) (*FPC, error) {
	F := new(FPC)
	F.SetDefaults()
	exe, err := job.CheckExecutable(O.Config.Exe)
	if err != nil {
		return nil, err
	}
	F.SetCommand(exe)
	if O.Config.Method != "" {
		F.method = O.Config.Method
	}
	if O.Config.ScoreType != "" {
		F.scoreType = O.Config.ScoreType
	}
	F.SetnCPU(O.NProc)
	F.benchmark = O.Benchmark
	F.workdir = O.WorkDir
	F.maxClusterSize = O.Config.MaxClusterSize
	F.Timeout = O.Timeout
	return F, nil
}

//SetDefaults sets k-means on RMSD, on one CPU, in the current directory.
func (F *FPC) SetDefaults() {
	F.command = "fast_protein_cluster"
	F.method = "kmeans"
	F.scoreType = "rmsd"
	F.nCPU = 1
	F.workdir = "."
	F.maxClusterSize = 200
}

//SetCommand sets the executable.
func (F *FPC) SetCommand(exe string) {
	F.command = exe
}

//SetnCPU sets the number of threads fast_protein_cluster may use.
func (F *FPC) SetnCPU(cpu int) {
	F.nCPU = cpu
}

//MaxClusters implements Clusterer.
func (F *FPC) MaxClusters() int {
	return FPCMaxClusters
}

//Name implements Clusterer.
func (F *FPC) Name() string {
	return "fast_protein_cluster"
}

//BuildInput writes the list of models and returns the arguments for the program.
func (F *FPC) BuildInput(models []*ample.DecoyModel) ([]string, error) {
	errid := "FPC.BuildInput"
	if err := os.MkdirAll(F.workdir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	var b strings.Builder
	for _, m := range models {
		abs, err := filepath.Abs(m.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errid, err)
		}
		b.WriteString(abs + "\n")
	}
	if err := os.WriteFile(filepath.Join(F.workdir, fpcList), []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	args := make([]string, 0, 10)
	switch F.scoreType {
	case "rmsd":
		args = append(args, "--rmsd")
	case "tm":
		args = append(args, "--tmscore")
	default:
		return nil, ample.NewConfigError("unrecognised score type %q", F.scoreType)
	}
	switch F.method {
	case "kmeans":
		args = append(args, "--cluster_kmeans")
	case "hcomplete":
		args = append(args, "--cluster_hcomplete")
	default:
		return nil, ample.NewConfigError("unrecognised cluster method %q", F.method)
	}
	if F.nCPU > 1 {
		args = append(args, "--nthreads", strconv.Itoa(F.nCPU))
	}
	args = append(args, "--write_text_matrix", fpcMatrix)
	if F.benchmark {
		args = append(args, "-S", "1")
	}
	args = append(args, "-i", fpcList)
	return args, nil
}

//Cluster implements Clusterer. fast_protein_cluster always finds FPCMaxClusters clusters;
//the first numClusters are returned.
func (F *FPC) Cluster(ctx context.Context, models []*ample.DecoyModel, numClusters int) ([]*ample.Cluster, error) {
	if err := Validate(F, models, numClusters); err != nil {
		return nil, err
	}
	args, err := F.BuildInput(models)
	if err != nil {
		return nil, err
	}
	J := job.New("fast_protein_cluster", F.command, F.workdir, args...).SetTimeout(F.Timeout).Expect(fpcClusters, fpcStats)
	if err := J.Run(ctx); err != nil {
		return nil, err
	}
	sizes, centroids, err := readFPCStats(filepath.Join(F.workdir, fpcStats))
	if err != nil {
		return nil, ample.NewBackendError(J.Log(), err, "fast_protein_cluster: bad stats file")
	}
	if len(sizes) != FPCMaxClusters {
		return nil, ample.NewBackendError(J.Log(), nil, "found %d clusters in %s but was expecting %d", len(sizes), fpcStats, FPCMaxClusters)
	}
	members, err := readFPCClusters(filepath.Join(F.workdir, fpcClusters), FPCMaxClusters)
	if err != nil {
		return nil, ample.NewBackendError(J.Log(), err, "fast_protein_cluster: bad cluster file")
	}
	byPath := make(map[string]*ample.DecoyModel, len(models))
	for _, m := range models {
		abs, _ := filepath.Abs(m.Path)
		byPath[abs] = m
		byPath[m.Path] = m
	}
	clusters := make([]*ample.Cluster, 0, numClusters)
	for i := 0; i < numClusters; i++ {
		c := &ample.Cluster{Index: i + 1, Method: F.method, ScoreType: F.scoreType, NumClusters: numClusters}
		for _, p := range members[i] {
			m, ok := byPath[p]
			if !ok {
				return nil, ample.NewBackendError(J.Log(), nil, "unknown model %s in %s", p, fpcClusters)
			}
			c.Models = append(c.Models, m)
		}
		if sizes[i] != len(c.Models) {
			log.WithField("cluster", i+1).Warnf("fast_protein_cluster reports %d models but assigned %d", sizes[i], len(c.Models))
		}
		c.Centroid = byPath[centroids[i]]
		clusters = append(clusters, c)
	}
	Cap(clusters, F.maxClusterSize)
	return clusters, nil
}

//readFPCStats returns the size and centroid of each "Cluster:" line.
func readFPCStats(path string) ([]int, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	sizes := make([]int, 0, FPCMaxClusters)
	centroids := make([]string, 0, FPCMaxClusters)
	in := bufio.NewScanner(f)
	for in.Scan() {
		line := in.Text()
		if !strings.HasPrefix(line, "Cluster:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 {
			return nil, nil, fmt.Errorf("short line: %q", line)
		}
		size, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, nil, err
		}
		sizes = append(sizes, size)
		centroids = append(centroids, fields[7])
	}
	return sizes, centroids, in.Err()
}

//readFPCClusters reads the "model index" lines of the assignment file. Indices are 0-based.
func readFPCClusters(path string, n int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret := make([][]string, n)
	in := bufio.NewScanner(f)
	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("short line: %q", in.Text())
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("cluster index %d out of range", idx)
		}
		ret[idx] = append(ret[idx], fields[0])
	}
	return ret, in.Err()
}
