/*
 * ranked.go, part of ample.
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

package truncate

import (
	"sort"

	"github.com/rmera/ample/metric"
)

//ranked holds residues and their variances, and can sort itself either by
//variance or by residue number.
type ranked struct {
	resseqs   []int
	variances []float64
	sorting   string
}

func newRanked(v []metric.ResidueVariance) *ranked {
	r := &ranked{resseqs: make([]int, len(v)), variances: make([]float64, len(v)), sorting: "resseq"}
	for i, w := range v {
		r.resseqs[i] = w.ResSeq
		r.variances[i] = w.Variance
	}
	return r
}

func (r *ranked) Len() int {
	return len(r.resseqs)
}

func (r *ranked) Swap(i, j int) {
	r.resseqs[i], r.resseqs[j] = r.resseqs[j], r.resseqs[i]
	r.variances[i], r.variances[j] = r.variances[j], r.variances[i]
}

func (r *ranked) Less(i, j int) bool {
	if r.sorting == "variance" && r.variances[i] != r.variances[j] {
		return r.variances[i] < r.variances[j]
	}
	return r.resseqs[i] < r.resseqs[j]
}

//SortBy sorts by "variance" (ties by residue number) or by "resseq".
func (r *ranked) SortBy(what string) {
	r.sorting = what
	sort.Sort(r)
}

//Region returns the residues numbered from start to end, inclusive.
func (r *ranked) Region(start, end int) *ranked {
	ret := &ranked{sorting: r.sorting}
	for i, v := range r.resseqs {
		if v >= start && v <= end {
			ret.resseqs = append(ret.resseqs, v)
			ret.variances = append(ret.variances, r.variances[i])
		}
	}
	return ret
}

//Below returns, sorted, the residues with variance not above t.
func (r *ranked) Below(t float64) []int {
	ret := make([]int, 0, len(r.resseqs))
	for i, v := range r.variances {
		if v <= t {
			ret = append(ret, r.resseqs[i])
		}
	}
	sort.Ints(ret)
	return ret
}
