/*
 * subcluster.go, part of ample.
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

//Package subcluster selects, for each radius threshold, the decoys of a truncation
//level that lie within that radius of a reference decoy.
package subcluster

import (
	"context"
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
)

//Reasons for which a radius gives no subcluster.
const (
	SkipDegenerate = "degenerate"
	SkipDuplicate  = "duplicate"
	SkipMetric     = "metric"
)

//Skip records a radius that gave no subcluster.
type Skip struct {
	Radius float64
	Reason string
	Detail string
}

//Result is the outcome of subclustering one truncation level.
type Result struct {
	Subclusters []*ample.Subcluster //by increasing radius
	Skips       []Skip
}

//Count returns how many radii were skipped for the given reason.
func (R *Result) Count(reason string) int {
	n := 0
	for _, v := range R.Skips {
		if v.Reason == reason {
			n++
		}
	}
	return n
}

//Subclusterer sweeps a set of radius thresholds over a truncation level.
type Subclusterer struct {
	radii     []float64
	maxModels int
	metric    metric.Provider
}

//New returns a Subclusterer for cfg, which must be valid.
func New(cfg ample.SubclusterConfig, p metric.Provider) (*Subclusterer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Subclusterer{radii: cfg.Radii(), maxModels: cfg.MaxEnsembleModels, metric: p}, nil
}

//Subclusters computes the distances between the truncated models once and returns a
//subcluster per radius. truncated[i] is the truncated version of level.Cluster.Models[i].
func (S *Subclusterer) Subclusters(ctx context.Context, level *ample.TruncationLevel, truncated []string, workdir string) (*Result, error) {
	models := level.Cluster.Models
	if len(truncated) != len(models) {
		return nil, fmt.Errorf("subclusters: %d truncated models for %d models", len(truncated), len(models))
	}
	D, err := S.metric.Distances(ctx, truncated, workdir)
	if err != nil {
		return nil, ample.ErrDecorate(err, "Subclusterer.Subclusters")
	}
	ref := Reference(level.Cluster, D)
	res := new(Result)
	var prev []int
	for _, r := range S.radii {
		fields := log.Fields{"cluster": level.Cluster.Index, "level": level.Label(), "radius": r}
		members, err := S.Members(D, ref, r)
		if err != nil {
			log.WithFields(fields).Warn(err.Error())
			res.Skips = append(res.Skips, Skip{Radius: r, Reason: SkipMetric, Detail: err.Error()})
			continue
		}
		if len(members) < 2 {
			res.Skips = append(res.Skips, Skip{Radius: r, Reason: SkipDegenerate, Detail: fmt.Sprintf("%d model(s)", len(members))})
			continue
		}
		if sameMembers(prev, members) {
			res.Skips = append(res.Skips, Skip{Radius: r, Reason: SkipDuplicate, Detail: "same models as the previous radius"})
			log.WithFields(fields).Debug("same models as the previous radius")
			continue
		}
		prev = members
		sub := &ample.Subcluster{Level: level, Radius: r, Reference: models[ref]}
		for _, m := range members {
			sub.Models = append(sub.Models, models[m])
		}
		res.Subclusters = append(res.Subclusters, sub)
	}
	return res, nil
}

//Reference returns the index of the reference model: the centroid of the cluster if it
//is one of its models, otherwise the medoid under D (ties go to the first model).
func Reference(c *ample.Cluster, D *mat.SymDense) int {
	if c.Centroid != nil {
		for i, m := range c.Models {
			if m == c.Centroid || m.Path == c.Centroid.Path {
				return i
			}
		}
	}
	n, _ := D.Dims()
	best, bestsum := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += dist(D, i, j)
		}
		if sum < bestsum {
			best, bestsum = i, sum
		}
	}
	return best
}

//Members returns the reference and the models within radius of it, ordered by distance
//and then by index, capped at the maximum ensemble size. It fails if the reference
//couldn't be compared to any other model.
func (S *Subclusterer) Members(D *mat.SymDense, ref int, radius float64) ([]int, error) {
	n, _ := D.Dims()
	cands := make([]int, 0, n)
	measured := 0
	for j := 0; j < n; j++ {
		if j == ref {
			continue
		}
		d := D.At(ref, j)
		if math.IsNaN(d) {
			continue
		}
		measured++
		if d <= radius {
			cands = append(cands, j)
		}
	}
	if n > 1 && measured == 0 {
		return nil, ample.NewMetricError(nil, "reference model %d could not be superposed on any other model", ref+1)
	}
	sort.SliceStable(cands, func(a, b int) bool { return D.At(ref, cands[a]) < D.At(ref, cands[b]) })
	members := append([]int{ref}, cands...)
	if S.maxModels > 0 && len(members) > S.maxModels {
		members = members[:S.maxModels]
	}
	return members, nil
}

func dist(D *mat.SymDense, i, j int) float64 {
	d := D.At(i, j)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

func sameMembers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}
