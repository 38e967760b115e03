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

package ensemble

import (
	log "github.com/sirupsen/logrus"

	"github.com/rmera/ample"
	"github.com/rmera/ample/pdb"
)

//ImportEnsembles returns a record for each PDB file in dir, taking them as ensembles built
//elsewhere. Nothing about their origin is known, so only the name, path and counts are set.
func ImportEnsembles(dir string) ([]*ample.Record, error) {
	models, err := ample.DecoysFromDir(dir)
	if err != nil {
		return nil, err
	}
	recs := make([]*ample.Record, 0, len(models))
	for _, m := range models {
		atoms, residues, err := pdb.CountFile(m.Path)
		if err != nil {
			return nil, ample.NewConfigError("cannot import ensemble %s: %s", m.Path, err.Error())
		}
		if atoms == 0 {
			log.Warnf("import: %s has no atoms, skipped", m.Path)
			continue
		}
		recs = append(recs, &ample.Record{Name: m.Name, Path: m.Path, ClusterMethod: "import", NumAtoms: atoms, NumResidues: residues})
	}
	if len(recs) == 0 {
		return nil, ample.NewConfigError("no usable ensembles in %s", dir)
	}
	return recs, nil
}
