/*
 * report.go, part of ample.
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

//Package report summarizes ensemble metadata as a cluster/truncation/radius tree,
//prints it as a table and plots variance profiles.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/rmera/ample"
)

//RadiusData groups the ensembles of one subclustering radius.
type RadiusData struct {
	Radius    float64
	NumModels int
	Ensembles []string
}

//LevelData groups the radii of one truncation level.
type LevelData struct {
	Level       float64
	Variance    float64
	NumResidues int
	Radii       []*RadiusData
}

//ClusterData groups the truncation levels of one cluster.
type ClusterData struct {
	Num       int
	Method    string
	ScoreType string
	Centroid  string
	NumModels int
	Levels    []*LevelData
}

//Collate builds the cluster tree out of the records. The records are not modified;
//clusters, levels and radii come out in increasing order.
func Collate(recs []*ample.Record) []*ClusterData {
	sorted := append([]*ample.Record(nil), recs...)
	ample.SortRecords(sorted)
	clusters := make([]*ClusterData, 0)
	var c *ClusterData
	var l *LevelData
	var r *RadiusData
	for _, e := range sorted {
		if c == nil || c.Num != e.ClusterNum {
			c = &ClusterData{Num: e.ClusterNum, Method: e.ClusterMethod, ScoreType: e.ClusterScoreType,
				Centroid: e.ClusterCentroid, NumModels: e.ClusterNumModels}
			clusters = append(clusters, c)
			l = nil
		}
		if l == nil || l.Level != e.TruncationLevel {
			l = &LevelData{Level: e.TruncationLevel, Variance: e.TruncationVariance, NumResidues: e.TruncationNumResidue}
			c.Levels = append(c.Levels, l)
			r = nil
		}
		if r == nil || r.Radius != e.RadiusThreshold {
			r = &RadiusData{Radius: e.RadiusThreshold, NumModels: e.SubclusterNumModels}
			l.Radii = append(l.Radii, r)
		}
		r.Ensembles = append(r.Ensembles, e.Name)
	}
	return clusters
}

//Table writes one row per radius of every cluster and truncation level.
func Table(w io.Writer, recs []*ample.Record) error {
	clusters := Collate(recs)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Cluster\tMethod\tModels\tTruncation\tVariance\tResidues\tRadius\tSubcluster\tEnsembles")
	for _, c := range clusters {
		for _, l := range c.Levels {
			for _, r := range l.Radii {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%g\t%.3f\t%d\t%g\t%d\t%d\n", c.Num, c.Method, c.NumModels,
					l.Level, l.Variance, l.NumResidues, r.Radius, r.NumModels, len(r.Ensembles))
			}
		}
	}
	return tw.Flush()
}

//Counts returns the number of ensembles per side-chain treatment, and the treatments
//in table order.
func Counts(recs []*ample.Record) (map[ample.Treatment]int, []ample.Treatment) {
	ret := make(map[ample.Treatment]int)
	for _, v := range recs {
		ret[v.SideChainTreatment]++
	}
	keys := make([]ample.Treatment, 0, len(ret))
	for k := range ret {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Order() != keys[j].Order() {
			return keys[i].Order() < keys[j].Order()
		}
		return keys[i] < keys[j]
	})
	return ret, keys
}

//Summary writes the table and the per-treatment counts.
func Summary(w io.Writer, recs []*ample.Record) error {
	fmt.Fprintf(w, "%d ensembles\n\n", len(recs))
	if err := Table(w, recs); err != nil {
		return err
	}
	counts, keys := Counts(recs)
	fmt.Fprintln(w)
	for _, k := range keys {
		fmt.Fprintf(w, "%-10s %d\n", k, counts[k])
	}
	return nil
}
