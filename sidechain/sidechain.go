/*
 * sidechain.go, part of ample.
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

//Package sidechain applies side-chain treatments to structures.
package sidechain

import (
	"github.com/rmera/ample"
	"github.com/rmera/ample/pdb"
)

var backbone = map[string]bool{"N": true, "CA": true, "C": true, "O": true}

var backboneCB = map[string]bool{"N": true, "CA": true, "C": true, "O": true, "CB": true}

//ReliableResidues keep their whole side chain under the reliable treatment.
var ReliableResidues = map[string]bool{"MET": true, "ASP": true, "PRO": true, "GLN": true,
	"LYS": true, "ARG": true, "GLU": true, "SER": true}

//Keep returns the atom filter for treatment t, or nil if t keeps every atom.
func Keep(t ample.Treatment) func(*pdb.Atom) bool {
	switch t {
	case ample.Backbone:
		return func(a *pdb.Atom) bool { return backbone[a.Name] }
	case ample.PolyAla:
		return func(a *pdb.Atom) bool { return backboneCB[a.Name] }
	case ample.CAlpha:
		return func(a *pdb.Atom) bool { return a.Name == "CA" }
	case ample.Reliable:
		return func(a *pdb.Atom) bool { return ReliableResidues[a.ResName] || backboneCB[a.Name] }
	}
	return nil
}

//Apply returns a copy of s with the treatment t applied. Atom order is kept.
func Apply(s *pdb.Structure, t ample.Treatment) (*pdb.Structure, error) {
	if _, err := ample.ParseTreatment(string(t)); err != nil {
		return nil, err
	}
	keep := Keep(t)
	if keep == nil {
		return s.Copy(), nil
	}
	return s.StripAtoms(keep), nil
}

//ApplyFile reads in, applies t and writes the result to out. It returns the atoms
//and residues of the first model written.
func ApplyFile(in, out string, t ample.Treatment) (atoms, residues int, err error) {
	s, err := pdb.ReadFile(in)
	if err != nil {
		return 0, 0, err
	}
	r, err := Apply(s, t)
	if err != nil {
		return 0, 0, err
	}
	if err := pdb.WriteFile(out, r); err != nil {
		return 0, 0, err
	}
	return r.NumAtoms(), r.NumResidues(), nil
}
