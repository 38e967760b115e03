/*
 * edit.go, part of ample.
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

package pdb

import (
	"fmt"
	"sort"
)

//Copy returns a deep copy of the model.
func (M *Model) Copy() *Model {
	r := &Model{Num: M.Num, Atoms: make([]*Atom, len(M.Atoms))}
	for i, v := range M.Atoms {
		r.Atoms[i] = v.Copy()
	}
	return r
}

//Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	r := &Structure{Remarks: append([]string(nil), S.Remarks...), Models: make([]*Model, len(S.Models))}
	for i, v := range S.Models {
		r.Models[i] = v.Copy()
	}
	return r
}

//First returns the first model, or nil if there are none.
func (S *Structure) First() *Model {
	if len(S.Models) == 0 {
		return nil
	}
	return S.Models[0]
}

//NumAtoms returns the atoms in the first model.
func (S *Structure) NumAtoms() int {
	if m := S.First(); m != nil {
		return len(m.Atoms)
	}
	return 0
}

//NumResidues returns the residues in the first model.
func (S *Structure) NumResidues() int {
	if m := S.First(); m != nil {
		return len(m.Residues())
	}
	return 0
}

//Residues returns the residue sequence numbers of the model, in order of appearance
//and without repetitions.
func (M *Model) Residues() []int {
	ret := make([]int, 0, len(M.Atoms)/4+1)
	seen := make(map[int]bool)
	for _, a := range M.Atoms {
		if !seen[a.ResSeq] {
			seen[a.ResSeq] = true
			ret = append(ret, a.ResSeq)
		}
	}
	return ret
}

//Chains returns the chain identifiers of the model, in order of appearance.
func (M *Model) Chains() []byte {
	ret := make([]byte, 0, 1)
	seen := make(map[byte]bool)
	for _, a := range M.Atoms {
		if !seen[a.Chain] {
			seen[a.Chain] = true
			ret = append(ret, a.Chain)
		}
	}
	return ret
}

//CA returns the residue numbers and the coordinates of the C-alpha atoms of the model.
//Only the first C-alpha of each residue is used.
func (M *Model) CA() ([]int, [][3]float64) {
	res := make([]int, 0, len(M.Atoms)/4+1)
	coords := make([][3]float64, 0, cap(res))
	seen := make(map[int]bool)
	for _, a := range M.Atoms {
		if a.Name != "CA" || a.Het || seen[a.ResSeq] {
			continue
		}
		seen[a.ResSeq] = true
		res = append(res, a.ResSeq)
		coords = append(coords, a.Coords)
	}
	return res, coords
}

//StripAtoms returns a new structure with only the atoms for which keep is true.
//Atom order is preserved.
func (S *Structure) StripAtoms(keep func(*Atom) bool) *Structure {
	r := &Structure{Remarks: append([]string(nil), S.Remarks...), Models: make([]*Model, len(S.Models))}
	for i, m := range S.Models {
		nm := &Model{Num: m.Num, Atoms: make([]*Atom, 0, len(m.Atoms))}
		for _, a := range m.Atoms {
			if keep(a) {
				nm.Atoms = append(nm.Atoms, a.Copy())
			}
		}
		r.Models[i] = nm
	}
	return r
}

//SelectResidues returns a new structure with only the residues listed.
func (S *Structure) SelectResidues(residues []int) *Structure {
	set := intSet(residues)
	return S.StripAtoms(func(a *Atom) bool { return set[a.ResSeq] })
}

//DeleteResidues returns a new structure without the residues listed.
func (S *Structure) DeleteResidues(residues []int) *Structure {
	set := intSet(residues)
	return S.StripAtoms(func(a *Atom) bool { return !set[a.ResSeq] })
}

//ExtractChain returns a new structure with only the atoms of chain id.
func (S *Structure) ExtractChain(id byte) *Structure {
	return S.StripAtoms(func(a *Atom) bool { return a.Chain == id })
}

//Renumber renumbers, in place, the residues of every model consecutively from start,
//restarting at each chain, and the atoms consecutively from 1.
func (S *Structure) Renumber(start int) {
	for _, m := range S.Models {
		var chain byte
		res, prev, previcode := start-1, 0, byte(0)
		for i, a := range m.Atoms {
			if i == 0 || a.Chain != chain {
				chain = a.Chain
				res = start - 1
				prev, previcode = a.ResSeq-1, 0
			}
			if a.ResSeq != prev || a.ICode != previcode {
				res++
				prev, previcode = a.ResSeq, a.ICode
			}
			a.ResSeq = res
			a.ICode = 0
			a.Serial = i + 1
		}
	}
}

//Merge builds a multi-model structure out of the first model of each structure,
//numbering the models from 1.
func Merge(structures []*Structure) *Structure {
	r := new(Structure)
	for i, s := range structures {
		m := s.First()
		if m == nil {
			continue
		}
		nm := m.Copy()
		nm.Num = i + 1
		r.Models = append(r.Models, nm)
	}
	return r
}

//Consistent returns an error unless the two models have the same chains and
//the same residue numbering.
func Consistent(ref, target *Model) error {
	rc, tc := ref.Chains(), target.Chains()
	if len(rc) != len(tc) {
		return fmt.Errorf("pdb: different number of chains: %d and %d", len(rc), len(tc))
	}
	rr, tr := ref.Residues(), target.Residues()
	if len(rr) != len(tr) {
		return fmt.Errorf("pdb: different number of residues: %d and %d", len(rr), len(tr))
	}
	for i := range rr {
		if rr[i] != tr[i] {
			return fmt.Errorf("pdb: residue %d is numbered %d in one model and %d in the other", i+1, rr[i], tr[i])
		}
	}
	return nil
}

//CountFile returns the number of atoms and residues in the first model of the file at path.
func CountFile(path string) (atoms, residues int, err error) {
	s, err := ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	return s.NumAtoms(), s.NumResidues(), nil
}

//SortedResidues returns a sorted copy of res.
func SortedResidues(res []int) []int {
	r := append([]int(nil), res...)
	sort.Ints(r)
	return r
}

func intSet(l []int) map[int]bool {
	set := make(map[int]bool, len(l))
	for _, v := range l {
		set[v] = true
	}
	return set
}
