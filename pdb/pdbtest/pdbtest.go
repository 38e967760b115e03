/*
 * pdbtest.go, part of ample.
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

//Package pdbtest builds synthetic protein decoys for tests.
package pdbtest

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rmera/ample/pdb"
)

//residue types cycled along the chain, with their side-chain atoms beyond CB.
var residueCycle = []struct {
	name  string
	extra []string
}{
	{"MET", []string{"CB", "CG", "SD", "CE"}},
	{"ALA", []string{"CB"}},
	{"GLY", nil},
	{"SER", []string{"CB", "OG"}},
	{"LEU", []string{"CB", "CG", "CD1", "CD2"}},
}

//Protein returns an ideal helix of n residues, chain A, numbered from 1.
func Protein(n int) *pdb.Structure {
	m := &pdb.Model{Num: 1}
	serial := 1
	add := func(name, resname string, res int, c [3]float64) {
		m.Atoms = append(m.Atoms, &pdb.Atom{Serial: serial, Name: name, ResName: resname, Chain: 'A',
			ResSeq: res, Coords: c, Occupancy: 1, Element: name[:1]})
		serial++
	}
	for i := 0; i < n; i++ {
		t := float64(i) * 100 * math.Pi / 180
		ca := [3]float64{2.3 * math.Cos(t), 2.3 * math.Sin(t), 1.5 * float64(i)}
		rt := residueCycle[i%len(residueCycle)]
		add("N", rt.name, i+1, [3]float64{ca[0] - 0.5, ca[1] + 0.9, ca[2] - 0.6})
		add("CA", rt.name, i+1, ca)
		add("C", rt.name, i+1, [3]float64{ca[0] + 0.6, ca[1] - 0.2, ca[2] + 0.9})
		add("O", rt.name, i+1, [3]float64{ca[0] + 1.7, ca[1] - 0.1, ca[2] + 1.3})
		for j, v := range rt.extra {
			d := 1.5 * float64(j+1)
			add(v, rt.name, i+1, [3]float64{ca[0] * (1 + d/2.3), ca[1] * (1 + d/2.3), ca[2] + 0.2*float64(j)})
		}
	}
	return &pdb.Structure{Models: []*pdb.Model{m}}
}

//Uniform is a perturbation amplitude that is the same for every residue.
func Uniform(amp float64) func(int) float64 {
	return func(int) float64 { return amp }
}

//Perturb returns a copy of s where each atom is displaced randomly by up to
//amp(residue) in each direction, and the whole structure is then rotated and
//translated at random.
func Perturb(s *pdb.Structure, amp func(int) float64, rng *rand.Rand) *pdb.Structure {
	r := s.Copy()
	rot := randomRotation(rng)
	shift := [3]float64{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10}
	for _, m := range r.Models {
		for _, a := range m.Atoms {
			A := amp(a.ResSeq)
			var p [3]float64
			for k := range p {
				p[k] = a.Coords[k] + A*(2*rng.Float64()-1)
			}
			for k := range p {
				a.Coords[k] = rot[k][0]*p[0] + rot[k][1]*p[1] + rot[k][2]*p[2] + shift[k]
			}
		}
	}
	return r
}

//randomRotation returns a rotation matrix around a random axis (Rodrigues' formula).
func randomRotation(rng *rand.Rand) [3][3]float64 {
	ax := [3]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	n := math.Sqrt(ax[0]*ax[0] + ax[1]*ax[1] + ax[2]*ax[2])
	for k := range ax {
		ax[k] /= n
	}
	th := rng.Float64() * 2 * math.Pi
	c, s := math.Cos(th), math.Sin(th)
	x, y, z := ax[0], ax[1], ax[2]
	return [3][3]float64{
		{c + x*x*(1-c), x*y*(1-c) - z*s, x*z*(1-c) + y*s},
		{y*x*(1-c) + z*s, c + y*y*(1-c), y*z*(1-c) - x*s},
		{z*x*(1-c) - y*s, z*y*(1-c) + x*s, c + z*z*(1-c)},
	}
}

//WriteDecoys writes n perturbed copies of base to dir, named decoy_01.pdb and so on,
//and returns their paths.
func WriteDecoys(tb testing.TB, dir string, base *pdb.Structure, n int, amp func(int) float64, seed int64) []string {
	tb.Helper()
	rng := rand.New(rand.NewSource(seed))
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(dir, fmt.Sprintf("decoy_%02d.pdb", i+1))
		if err := pdb.WriteFile(paths[i], Perturb(base, amp, rng)); err != nil {
			tb.Fatal(err)
		}
	}
	return paths
}
