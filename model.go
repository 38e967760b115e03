/*
 * model.go, part of ample.
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
	"sort"
	"strconv"
	"strings"
)

//DecoyModel is one predicted structure. It is never modified once created.
type DecoyModel struct {
	Path string
	Name string //file name without directory or extension
}

//NewDecoyModel returns a DecoyModel for the structure file at path.
func NewDecoyModel(path string) *DecoyModel {
	base := filepath.Base(path)
	return &DecoyModel{Path: path, Name: strings.TrimSuffix(base, filepath.Ext(base))}
}

//DecoysFromPaths wraps each path in a DecoyModel, keeping the order.
func DecoysFromPaths(paths []string) []*DecoyModel {
	ret := make([]*DecoyModel, 0, len(paths))
	for _, v := range paths {
		ret = append(ret, NewDecoyModel(v))
	}
	return ret
}

//DecoysFromDir returns the PDB files in dir, in lexical order.
func DecoysFromDir(dir string) ([]*DecoyModel, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, NewConfigError("no PDB files found in directory %s", dir)
	}
	sort.Strings(paths)
	return DecoysFromPaths(paths), nil
}

//Paths returns the file paths of the given models.
func Paths(models []*DecoyModel) []string {
	ret := make([]string, len(models))
	for i, v := range models {
		ret[i] = v.Path
	}
	return ret
}

//CheckModels returns a configuration error if there are no models or
//any of them can't be found.
func CheckModels(models []*DecoyModel) error {
	if len(models) == 0 {
		return NewConfigError("no models given")
	}
	missing := make([]string, 0)
	for _, v := range models {
		if st, err := os.Stat(v.Path); err != nil || st.IsDir() {
			missing = append(missing, v.Path)
		}
	}
	if len(missing) > 0 {
		return NewConfigError("missing models: %s", strings.Join(missing, ", "))
	}
	return nil
}

//Cluster is a group of structurally similar decoys as given by a clustering
//backend. Index is 1-based and follows the backend's own ranking.
type Cluster struct {
	Index       int
	Models      []*DecoyModel
	Centroid    *DecoyModel
	Method      string
	ScoreType   string
	NumClusters int
}

//Len returns the number of models in the cluster.
func (C *Cluster) Len() int {
	return len(C.Models)
}

//Paths returns the paths of the models in the cluster, in cluster order.
func (C *Cluster) Paths() []string {
	return Paths(C.Models)
}

//TruncationMethod selects how residues are ranked and cut.
type TruncationMethod string

const (
	Percent  TruncationMethod = "percent"
	Thresh   TruncationMethod = "thresh"
	Focussed TruncationMethod = "focussed"
)

//TruncationLevel is a subset of the residues of a cluster, selected by variance.
type TruncationLevel struct {
	Cluster *Cluster
	Index   int //1-based, ascending with Level
	//Percent of the residues kept (percent, focussed) or of the
	//variance range covered (thresh).
	Level    float64
	Variance float64 //the variance threshold that produced Residues
	Residues []int   //residue sequence numbers kept, ascending
	Method   TruncationMethod
}

//Label is the string form of the level used in names and directories.
func (T *TruncationLevel) Label() string {
	return formatFloat(T.Level)
}

//Subcluster is the set of decoys of a truncation level that lie within
//Radius of the Reference decoy.
type Subcluster struct {
	Level     *TruncationLevel
	Radius    float64
	Models    []*DecoyModel
	Reference *DecoyModel
}

//NumModels returns the number of decoys in the subcluster.
func (S *Subcluster) NumModels() int {
	return len(S.Models)
}

//Treatment is a side-chain atom retention policy.
type Treatment string

const (
	AllAtom  Treatment = "allatom"
	Backbone Treatment = "backbone" //N, CA, C, O
	PolyAla  Treatment = "polyala"  //backbone and CB
	CAlpha   Treatment = "calpha"
	Reliable Treatment = "reliable" //full side chains only for the reliable residue types
)

//Treatments lists every known treatment, in table order.
var Treatments = []Treatment{PolyAla, Reliable, AllAtom, Backbone, CAlpha}

//DefaultTreatments are used when the configuration doesn't restrict them.
var DefaultTreatments = []Treatment{PolyAla, Reliable, AllAtom}

//ParseTreatment returns the Treatment named s. Case is ignored.
func ParseTreatment(s string) (Treatment, error) {
	t := Treatment(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Treatments {
		if t == v {
			return t, nil
		}
	}
	return "", NewConfigError("unknown side-chain treatment %q", s)
}

//Order returns the position of T in Treatments, or len(Treatments) if T is unknown.
func (T Treatment) Order() int {
	for i, v := range Treatments {
		if v == T {
			return i
		}
	}
	return len(Treatments)
}

//Ensemble is one search model: a subcluster with a side-chain treatment applied,
//written to Path. Ensembles are write-once.
type Ensemble struct {
	Name        string
	Path        string
	Subcluster  *Subcluster
	Treatment   Treatment
	NumAtoms    int //atoms in the first model of the file
	NumResidues int
}

//EnsembleName encodes the cluster index, truncation level, radius and treatment.
func EnsembleName(cluster int, level string, radius float64, t Treatment) string {
	return fmt.Sprintf("c%d_t%s_r%s_%s", cluster, level, formatFloat(radius), t)
}

//Record returns the flat metadata record for the ensemble.
func (E *Ensemble) Record() *Record {
	S := E.Subcluster
	L := S.Level
	C := L.Cluster
	r := &Record{
		Name:                 E.Name,
		Path:                 E.Path,
		ClusterNum:           C.Index,
		ClusterMethod:        C.Method,
		ClusterScoreType:     C.ScoreType,
		ClusterNumModels:     C.Len(),
		NumClusters:          C.NumClusters,
		TruncationLevel:      L.Level,
		TruncationIndex:      L.Index,
		TruncationMethod:     L.Method,
		TruncationVariance:   L.Variance,
		TruncationNumResidue: len(L.Residues),
		TruncationResidues:   append([]int(nil), L.Residues...),
		RadiusThreshold:      S.Radius,
		SubclusterNumModels:  S.NumModels(),
		SideChainTreatment:   E.Treatment,
		NumAtoms:             E.NumAtoms,
		NumResidues:          E.NumResidues,
	}
	if C.Centroid != nil {
		r.ClusterCentroid = C.Centroid.Path
	}
	if S.Reference != nil {
		r.SubclusterReference = S.Reference.Name
	}
	return r
}

//Record is the metadata kept for each ensemble. A set of Records is what
//the molecular replacement stage and the reports consume.
type Record struct {
	Name                 string           `json:"name"`
	Path                 string           `json:"ensemble_pdb"`
	ClusterNum           int              `json:"cluster_num"`
	ClusterMethod        string           `json:"cluster_method"`
	ClusterScoreType     string           `json:"cluster_score_type"`
	ClusterCentroid      string           `json:"cluster_centroid"`
	ClusterNumModels     int              `json:"cluster_num_models"`
	NumClusters          int              `json:"num_clusters"`
	TruncationLevel      float64          `json:"truncation_level"`
	TruncationIndex      int              `json:"truncation_index"`
	TruncationMethod     TruncationMethod `json:"truncation_method"`
	TruncationPercent    float64          `json:"percent_truncation"`
	TruncationPruning    string           `json:"truncation_pruning"`
	TruncationVariance   float64          `json:"truncation_variance"`
	TruncationNumResidue int              `json:"truncation_num_residues"`
	TruncationResidues   []int            `json:"truncation_residues"`
	RadiusThreshold      float64          `json:"subcluster_radius_threshold"`
	SubclusterNumModels  int              `json:"subcluster_num_models"`
	SubclusterReference  string           `json:"subcluster_reference"`
	SideChainTreatment   Treatment        `json:"side_chain_treatment"`
	NumAtoms             int              `json:"ensemble_num_atoms"`
	NumResidues          int              `json:"ensemble_num_residues"`
}

//SortRecords orders records by cluster, truncation level, radius and treatment.
func SortRecords(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.ClusterNum != b.ClusterNum {
			return a.ClusterNum < b.ClusterNum
		}
		if a.TruncationLevel != b.TruncationLevel {
			return a.TruncationLevel < b.TruncationLevel
		}
		if a.RadiusThreshold != b.RadiusThreshold {
			return a.RadiusThreshold < b.RadiusThreshold
		}
		return a.SideChainTreatment.Order() < b.SideChainTreatment.Order()
	})
}

//formatFloat prints f without trailing zeros (2 -> "2", 0.5 -> "0.5").
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
