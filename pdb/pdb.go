/*
 * pdb.go, part of ample.
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

//Package pdb reads, writes and edits multi-model PDB files. Only the
//coordinate records (ATOM, HETATM, MODEL, ENDMDL, TER) and REMARKs are kept;
//everything else is dropped on reading.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//Atom is one ATOM or HETATM record.
type Atom struct {
	Serial    int
	Name      string
	AltLoc    byte
	ResName   string
	Chain     byte
	ResSeq    int
	ICode     byte
	Coords    [3]float64
	Occupancy float64
	BFactor   float64
	Element   string
	Het       bool
}

//Copy returns a copy of the atom.
func (A *Atom) Copy() *Atom {
	r := *A
	return &r
}

//Model is one MODEL block, or the whole file if it has no MODEL records.
type Model struct {
	Num   int
	Atoms []*Atom
}

//Structure is the content of a PDB file.
type Structure struct {
	Remarks []string //the text after "REMARK "
	Models  []*Model
}

//Read parses a PDB stream. Atoms outside any MODEL block go to an implicit model 1.
func Read(r io.Reader) (*Structure, error) {
	s := new(Structure)
	var current *Model
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 1024), 1024*1024)
	contlines := 0
	for in.Scan() {
		contlines++
		line := in.Text()
		switch {
		case strings.HasPrefix(line, "REMARK"):
			s.Remarks = append(s.Remarks, strings.TrimSpace(strings.TrimPrefix(line, "REMARK")))
		case strings.HasPrefix(line, "MODEL"):
			num := len(s.Models) + 1
			if f := strings.Fields(line); len(f) > 1 {
				if n, err := strconv.Atoi(f[1]); err == nil {
					num = n
				}
			}
			current = &Model{Num: num}
			s.Models = append(s.Models, current)
		case strings.HasPrefix(line, "ENDMDL"):
			current = nil
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			atom, err := readAtomLine(line)
			if err != nil {
				return nil, fmt.Errorf("pdb: line %d: %w", contlines, err)
			}
			if current == nil {
				current = &Model{Num: len(s.Models) + 1}
				s.Models = append(s.Models, current)
			}
			current.Atoms = append(current.Atoms, atom)
		}
	}
	if err := in.Err(); err != nil {
		return nil, fmt.Errorf("pdb: %w", err)
	}
	return s, nil
}

//ReadFile reads the PDB file at path.
func ReadFile(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

//readAtomLine parses the fixed columns of an ATOM/HETATM line. Occupancy,
//B-factor and element are optional.
func readAtomLine(line string) (*Atom, error) {
	if len(line) < 54 {
		return nil, fmt.Errorf("atom record too short (%d columns)", len(line))
	}
	var err error
	errs := make([]error, 5)
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.Serial, errs[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	atom.AltLoc = blankToZero(line[16])
	atom.ResName = strings.TrimSpace(line[17:20])
	atom.Chain = line[21]
	atom.ResSeq, errs[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	atom.ICode = blankToZero(line[26])
	for i := 0; i < 3; i++ {
		atom.Coords[i], errs[2+i] = strconv.ParseFloat(strings.TrimSpace(line[30+8*i:38+8*i]), 64)
	}
	for _, v := range errs {
		if v != nil {
			return nil, v
		}
	}
	atom.Occupancy = 1
	if len(line) >= 60 {
		if atom.Occupancy, err = strconv.ParseFloat(strings.TrimSpace(line[54:60]), 64); err != nil {
			atom.Occupancy = 1
		}
	}
	if len(line) >= 66 {
		atom.BFactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	}
	if len(line) >= 78 {
		atom.Element = strings.TrimSpace(line[76:78])
	}
	if atom.Element == "" {
		atom.Element = elementFromName(atom.Name)
	}
	return atom, nil
}

//elementFromName guesses the element of a protein atom from its name.
func elementFromName(name string) string {
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return ""
	}
	return name[:1]
}

func blankToZero(b byte) byte {
	if b == ' ' {
		return 0
	}
	return b
}

func zeroToBlank(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}

//Write writes s in PDB format. MODEL records are written only when s has
//more than one model.
func Write(w io.Writer, s *Structure) error {
	out := bufio.NewWriter(w)
	for _, v := range s.Remarks {
		fmt.Fprintf(out, "REMARK %s\n", v)
	}
	multi := len(s.Models) > 1
	for _, m := range s.Models {
		if multi {
			fmt.Fprintf(out, "MODEL     %4d\n", m.Num)
		}
		var chainprev byte
		for i, a := range m.Atoms {
			if i > 0 && a.Chain != chainprev {
				fmt.Fprint(out, "TER\n")
			}
			chainprev = a.Chain
			if err := writeAtomLine(out, a); err != nil {
				return err
			}
		}
		if len(m.Atoms) > 0 {
			fmt.Fprint(out, "TER\n")
		}
		if multi {
			fmt.Fprint(out, "ENDMDL\n")
		}
	}
	fmt.Fprint(out, "END\n")
	return out.Flush()
}

func writeAtomLine(out io.Writer, a *Atom) error {
	first := "ATOM"
	if a.Het {
		first = "HETATM"
	}
	name := a.Name
	switch {
	case len(name) < 4:
		name = " " + name
	case len(name) > 4:
		return fmt.Errorf("pdb: atom name %q too long", a.Name)
	}
	_, err := fmt.Fprintf(out, "%-6s%5d %-4s%c%3s %c%4d%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
		first, a.Serial%100000, name, zeroToBlank(a.AltLoc), a.ResName, zeroToBlank(a.Chain), a.ResSeq,
		zeroToBlank(a.ICode), a.Coords[0], a.Coords[1], a.Coords[2], a.Occupancy, a.BFactor, a.Element)
	return err
}

//WriteFile writes s to path.
func WriteFile(path string, s *Structure) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
