/*
 * kmedoids.go, part of ample.
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
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
)

//KMedoids partitions the decoys around k medoids over their pairwise RMSD.
type KMedoids struct {
	metric         metric.Provider
	seed           int64
	workdir        string
	maxClusterSize int
	MaxIterations  int
}

//NewKMedoids returns a native k-medoids clusterer.
func NewKMedoids(O *Options) *KMedoids {
	K := &KMedoids{metric: O.Metric, seed: O.Seed, workdir: O.WorkDir, maxClusterSize: O.Config.MaxClusterSize, MaxIterations: 100}
	if K.metric == nil {
		K.metric = metric.NewNative(0, 0)
	}
	if O.Benchmark {
		K.seed = 1
	}
	return K
}

//MaxClusters implements Clusterer. The real limit is the number of models.
func (K *KMedoids) MaxClusters() int {
	return math.MaxInt32
}

//Name implements Clusterer.
func (K *KMedoids) Name() string {
	return "kmedoids"
}

//Cluster implements Clusterer. Clusters are sorted by decreasing size, ties broken by
//the input position of their medoids. Models keep their input order within each cluster.
func (K *KMedoids) Cluster(ctx context.Context, models []*ample.DecoyModel, numClusters int) ([]*ample.Cluster, error) {
	if err := Validate(K, models, numClusters); err != nil {
		return nil, err
	}
	if numClusters > len(models) {
		return nil, ample.NewConfigError("kmedoids: %d clusters requested for %d models", numClusters, len(models))
	}
	D, err := K.metric.Distances(ctx, ample.Paths(models), filepath.Join(K.workdir, "kmedoids"))
	if err != nil {
		return nil, err
	}
	medoids, assign := K.partition(D, numClusters, rand.New(rand.NewSource(K.seed)))
	clusters := make([]*ample.Cluster, numClusters)
	for c, m := range medoids {
		clusters[c] = &ample.Cluster{Centroid: models[m], Method: "kmedoids", ScoreType: "rmsd", NumClusters: numClusters}
	}
	for i, c := range assign {
		clusters[c].Models = append(clusters[c].Models, models[i])
	}
	order := make([]int, numClusters)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := clusters[order[i]], clusters[order[j]]
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return medoids[order[i]] < medoids[order[j]]
	})
	ret := make([]*ample.Cluster, numClusters)
	for i, o := range order {
		ret[i] = clusters[o]
		ret[i].Index = i + 1
	}
	Cap(ret, K.maxClusterSize)
	return ret, nil
}

//dist treats pairs that could not be measured as infinitely far apart.
func dist(D *mat.SymDense, i, j int) float64 {
	d := D.At(i, j)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

//seeds picks the first medoid at random and each of the others as the model farthest
//from the medoids already chosen.
func seeds(D *mat.SymDense, k int, rng *rand.Rand) []int {
	n, _ := D.Dims()
	medoids := []int{rng.Intn(n)}
	chosen := map[int]bool{medoids[0]: true}
	for len(medoids) < k {
		best, bestd := -1, -1.0
		for i := 0; i < n; i++ {
			if chosen[i] {
				continue
			}
			near := math.Inf(1)
			for _, m := range medoids {
				near = math.Min(near, dist(D, i, m))
			}
			if best < 0 || near > bestd {
				best, bestd = i, near
			}
		}
		medoids = append(medoids, best)
		chosen[best] = true
	}
	sort.Ints(medoids)
	return medoids
}

//partition returns the medoid of each cluster and the cluster of each model.
func (K *KMedoids) partition(D *mat.SymDense, k int, rng *rand.Rand) ([]int, []int) {
	n, _ := D.Dims()
	medoids := seeds(D, k, rng)
	assign := make([]int, n)
	for it := 0; it < K.MaxIterations; it++ {
		ismedoid := make(map[int]int, k)
		for c, m := range medoids {
			ismedoid[m] = c
		}
		for i := 0; i < n; i++ {
			if c, ok := ismedoid[i]; ok {
				assign[i] = c
				continue
			}
			best, bestd := 0, math.Inf(1)
			for c, m := range medoids {
				if d := dist(D, i, m); d < bestd {
					best, bestd = c, d
				}
			}
			assign[i] = best
		}
		changed := false
		for c := range medoids {
			best, bestcost := medoids[c], math.Inf(1)
			for i := 0; i < n; i++ {
				if assign[i] != c {
					continue
				}
				cost := 0.0
				for j := 0; j < n; j++ {
					if assign[j] == c {
						cost += dist(D, i, j)
					}
				}
				if cost < bestcost {
					best, bestcost = i, cost
				}
			}
			if best != medoids[c] {
				medoids[c] = best
				changed = true
			}
		}
		if !changed {
			return medoids, assign
		}
	}
	log.Warnf("kmedoids: no convergence after %d iterations", K.MaxIterations)
	return medoids, assign
}
