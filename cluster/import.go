/*
 * import.go, part of ample.
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

	"github.com/rmera/ample"
)

//Import takes a directory of models that were clustered elsewhere as one cluster.
type Import struct {
	dir            string
	maxClusterSize int
}

//NewImport returns an Import for the PDB files in dir. Clusters are capped at
//maxClusterSize models, in lexical order (less than 1 means no cap).
func NewImport(dir string, maxClusterSize int) *Import {
	return &Import{dir: dir, maxClusterSize: maxClusterSize}
}

//MaxClusters implements Clusterer.
func (I *Import) MaxClusters() int {
	return 1
}

//Name implements Clusterer.
func (I *Import) Name() string {
	return "import"
}

//Models returns the models in the import directory, in lexical order.
func (I *Import) Models() ([]*ample.DecoyModel, error) {
	if I.dir == "" {
		return nil, ample.NewConfigError("import: no cluster directory given")
	}
	return ample.DecoysFromDir(I.dir)
}

//Cluster implements Clusterer. If models is empty, the models of the import directory
//are used. The centroid is the first model.
func (I *Import) Cluster(ctx context.Context, models []*ample.DecoyModel, numClusters int) ([]*ample.Cluster, error) {
	if len(models) == 0 {
		var err error
		if models, err = I.Models(); err != nil {
			return nil, err
		}
	}
	if err := Validate(I, models, numClusters); err != nil {
		return nil, err
	}
	c := &ample.Cluster{Index: 1, Models: models, Centroid: models[0], Method: "import", NumClusters: 1}
	ret := []*ample.Cluster{c}
	Cap(ret, I.maxClusterSize)
	return ret, nil
}
