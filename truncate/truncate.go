/*
 * truncate.go, part of ample.
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

//Package truncate ranks the residues of a cluster by their structural variance
//and derives nested truncation levels from the ranking.
package truncate

import (
	"context"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/rmera/ample"
	"github.com/rmera/ample/metric"
)

//Truncator produces the truncation levels of a cluster.
type Truncator struct {
	method      ample.TruncationMethod
	percent     float64
	pruning     string
	focusStart  int
	focusEnd    int
	minResidues int
	metric      metric.Provider
}

//Result is the outcome of truncating one cluster.
type Result struct {
	Levels    []*ample.TruncationLevel //in ascending order of level
	Skipped   int                      //levels dropped for having too few residues or a repeated label
	Variances []metric.ResidueVariance //the per-residue variances, in residue order
}

//New returns a Truncator for the options in cfg, which must be valid.
func New(cfg ample.TruncationConfig, p metric.Provider) (*Truncator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	T := &Truncator{method: cfg.Method, percent: cfg.Percent, pruning: cfg.Pruning, focusStart: cfg.FocusStart,
		focusEnd: cfg.FocusEnd, minResidues: cfg.MinResidues, metric: p}
	if T.pruning == "" {
		T.pruning = ample.PruneNone
	}
	return T, nil
}

//Levels computes the variance of the residues of c once, in workdir, and returns the
//truncation levels derived from it.
func (T *Truncator) Levels(ctx context.Context, c *ample.Cluster, workdir string) (*Result, error) {
	v, err := T.metric.Variance(ctx, c.Paths(), workdir)
	if err != nil {
		return nil, ample.ErrDecorate(err, "Truncator.Levels")
	}
	res, err := T.FromVariances(c, v)
	if err != nil {
		return nil, err
	}
	return res, nil
}

//FromVariances derives the truncation levels of c from the variances v.
func (T *Truncator) FromVariances(c *ample.Cluster, v []metric.ResidueVariance) (*Result, error) {
	if len(v) == 0 {
		return nil, ample.NewMetricError(nil, "no residue variances for cluster %d", c.Index)
	}
	r := newRanked(v)
	if T.method == ample.Focussed {
		r = r.Region(T.focusStart, T.focusEnd)
		if r.Len() == 0 {
			return nil, ample.NewConfigError("no residues in the focus region %d-%d", T.focusStart, T.focusEnd)
		}
	}
	var cands []*ample.TruncationLevel
	var err error
	switch T.method {
	case ample.Percent, ample.Focussed:
		cands, err = T.byPercent(r)
	case ample.Thresh:
		cands = T.byThreshold(r)
	default:
		err = ample.NewConfigError("unknown truncation method %q", T.method)
	}
	if err != nil {
		return nil, err
	}
	ret := &Result{Variances: append([]metric.ResidueVariance(nil), v...)}
	sort.SliceStable(ret.Variances, func(i, j int) bool { return ret.Variances[i].ResSeq < ret.Variances[j].ResSeq })
	labels := make(map[string]bool, len(cands))
	for _, l := range cands {
		if T.pruning == ample.PruneSingle {
			l.Residues = PruneSingle(l.Residues)
		}
		if len(l.Residues) < T.minResidues {
			ret.Skipped++
			continue
		}
		//the label names the ensembles and the scratch directory of the level
		if labels[l.Label()] {
			log.WithField("cluster", c.Index).Warnf("truncation level %s repeated, dropped", l.Label())
			ret.Skipped++
			continue
		}
		labels[l.Label()] = true
		l.Cluster = c
		l.Method = T.method
		l.Index = len(ret.Levels) + 1
		ret.Levels = append(ret.Levels, l)
	}
	return ret, nil
}

//byPercent keeps the lowest-variance residues in chunks of the percent step. A level
//never splits residues of equal variance, so Variance is an inclusive threshold. The
//last level keeps every residue.
func (T *Truncator) byPercent(r *ranked) ([]*ample.TruncationLevel, error) {
	n := r.Len()
	chunk := int(math.Round(float64(n) * T.percent / 100))
	if chunk < 1 {
		return nil, ample.NewConfigError("a truncation step of %g%% of %d residues keeps less than one residue", T.percent, n)
	}
	nchunks := n / chunk
	if n%chunk > 0 {
		nchunks++
	}
	r.SortBy("variance")
	ret := make([]*ample.TruncationLevel, 0, nchunks)
	prev := 0
	for k := 1; k <= nchunks; k++ {
		end := k * chunk
		if end > n {
			end = n
		}
		//residues tied with the last one kept are kept too
		for end < n && r.variances[end] == r.variances[end-1] {
			end++
		}
		if end <= prev {
			continue
		}
		prev = end
		ret = append(ret, &ample.TruncationLevel{
			Level:    levelPercent(end, n),
			Variance: r.variances[end-1],
			Residues: sortedCopy(r.resseqs[:end]),
		})
	}
	return ret, nil
}

//byThreshold sweeps variance thresholds evenly over (min, max]. Thresholds that keep
//the same residues as the previous one are dropped.
func (T *Truncator) byThreshold(r *ranked) []*ample.TruncationLevel {
	nlevels := int(math.Round(100 / T.percent))
	if nlevels < 1 {
		nlevels = 1
	}
	lo, hi := floats.Min(r.variances), floats.Max(r.variances)
	ret := make([]*ample.TruncationLevel, 0, nlevels)
	prev := -1
	for k := 1; k <= nlevels; k++ {
		t := lo + (hi-lo)*float64(k)/float64(nlevels)
		if k == nlevels {
			t = hi
		}
		keep := r.Below(t)
		if len(keep) == prev {
			continue
		}
		prev = len(keep)
		ret = append(ret, &ample.TruncationLevel{
			Level:    levelPercent(k, nlevels),
			Variance: t,
			Residues: keep,
		})
	}
	return ret
}

//PruneSingle removes the residues that have no retained neighbour in sequence.
//res must be sorted.
func PruneSingle(res []int) []int {
	ret := make([]int, 0, len(res))
	for i, v := range res {
		before := i > 0 && res[i-1] == v-1
		after := i < len(res)-1 && res[i+1] == v+1
		if before || after {
			ret = append(ret, v)
		}
	}
	return ret
}

//levelPercent returns 100*part/whole rounded to two decimals, so that consecutive
//levels of clusters up to 10000 residues get different labels.
func levelPercent(part, whole int) float64 {
	return math.Round(10000*float64(part)/float64(whole)) / 100
}

func sortedCopy(r []int) []int {
	ret := append([]int(nil), r...)
	sort.Ints(ret)
	return ret
}
