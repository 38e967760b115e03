/*
 * cluster.go, part of ample.
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

//Package cluster groups decoys into clusters of structurally similar models.
package cluster

import (
	"context"
	"time"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
)

//Clusterer is a clustering backend.
type Clusterer interface {
	//Cluster returns exactly numClusters clusters, in the backend's own order.
	Cluster(ctx context.Context, models []*ample.DecoyModel, numClusters int) ([]*ample.Cluster, error)
	//MaxClusters is the largest number of clusters the backend can produce.
	MaxClusters() int
	Name() string
}

//Options for the construction of a Clusterer.
type Options struct {
	Config    ample.ClusterConfig
	WorkDir   string //scratch directory for external backends
	NProc     int
	Benchmark bool
	Seed      int64
	Timeout   time.Duration
	Metric    metric.Provider //used by the native backend
	ImportDir string          //directory of pre-clustered models
}

//New returns the Clusterer selected by O.Config.Backend.
func New(O *Options) (Clusterer, error) {
	switch O.Config.Backend {
	case ample.BackendFPC:
		return NewFPC(O)
	case ample.BackendKMedoids:
		return NewKMedoids(O), nil
	case ample.BackendImport:
		return NewImport(O.ImportDir, O.Config.MaxClusterSize), nil
	}
	return nil, ample.NewConfigError("unknown clustering backend %q", O.Config.Backend)
}

//Validate checks a clustering request before any backend runs: every model must exist
//and numClusters must be within the capacity of the backend.
func Validate(c Clusterer, models []*ample.DecoyModel, numClusters int) error {
	if err := ample.CheckModels(models); err != nil {
		return err
	}
	if numClusters < 1 {
		return ample.NewConfigError("%s: need at least one cluster, got %d", c.Name(), numClusters)
	}
	if numClusters > c.MaxClusters() {
		return ample.NewConfigError("%s: cannot work with more than %d clusters, got %d", c.Name(), c.MaxClusters(), numClusters)
	}
	return nil
}

//Cap truncates every cluster to at most max members, dropping them from the end of
//the cluster's own order. max < 1 means no cap.
func Cap(clusters []*ample.Cluster, max int) {
	if max < 1 {
		return
	}
	for _, c := range clusters {
		if len(c.Models) > max {
			c.Models = c.Models[:max]
		}
	}
}
