/*
 * theseus.go, part of ample.
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

package metric

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/rmera/ample"
	"github.com/rmera/ample/job"
)

//Theseus obtains the residue variances from the theseus program. Distances and
//superpositions are delegated to a Native provider.
type Theseus struct {
	command     string
	root        string
	Timeout     time.Duration
	KeepScratch bool
	native      *Native
}

//NewTheseus returns a handle for the theseus executable exe.
func NewTheseus(exe string, native *Native) *Theseus {
	T := new(Theseus)
	T.SetDefaults()
	T.SetCommand(exe)
	T.native = native
	return T
}

//SetDefaults sets the default command and output root name.
func (T *Theseus) SetDefaults() {
	T.command = "theseus"
	T.root = "theseus"
	T.native = NewNative(0, 0)
}

//SetCommand sets the theseus executable.
func (T *Theseus) SetCommand(exe string) {
	T.command = exe
}

//SetName sets the root of the output file names.
func (T *Theseus) SetName(root string) {
	T.root = root
}

//Command returns the theseus executable.
func (T *Theseus) Command() string {
	return T.command
}

func (T *Theseus) variancesFile() string {
	return T.root + "_variances.txt"
}

//Variance implements Provider by running theseus in workdir.
func (T *Theseus) Variance(ctx context.Context, models []string, workdir string) ([]ResidueVariance, error) {
	if len(models) == 0 {
		return nil, ample.NewMetricError(nil, "no models given")
	}
	abs := make([]string, len(models))
	for i, v := range models {
		a, err := filepath.Abs(v)
		if err != nil {
			return nil, err
		}
		abs[i] = a
	}
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, err
	}
	args := append([]string{"-a0", "-r", T.root}, abs...)
	J := job.New("theseus", T.command, workdir, args...).SetTimeout(T.Timeout).Expect(T.variancesFile())
	if err := J.Run(ctx); err != nil {
		return nil, err
	}
	if !T.KeepScratch {
		defer T.clean(workdir)
	}
	f, err := os.Open(filepath.Join(workdir, T.variancesFile()))
	if err != nil {
		return nil, ample.NewBackendError(J.Log(), err, "theseus: reading variances")
	}
	defer f.Close()
	v, err := ParseVariances(f)
	if err != nil {
		return nil, ample.NewBackendError(J.Log(), err, "theseus: malformed variances file")
	}
	return v, nil
}

//clean removes the files theseus leaves behind, except the log.
func (T *Theseus) clean(workdir string) {
	files, _ := filepath.Glob(filepath.Join(workdir, T.root+"_*"))
	for _, v := range files {
		if err := os.Remove(v); err != nil {
			log.Warnf("theseus: couldn't remove %s: %v", v, err)
		}
	}
}

//Distances implements Provider.
func (T *Theseus) Distances(ctx context.Context, models []string, workdir string) (*mat.SymDense, error) {
	return T.native.Distances(ctx, models, workdir)
}

//Superpose implements Provider.
func (T *Theseus) Superpose(ctx context.Context, models []string, residues []int, out string) error {
	return T.native.Superpose(ctx, models, residues, out)
}

//ParseVariances reads a theseus variances file. The first line is a header. Lines
//either start with "RES" followed by index, residue name, residue number and variance,
//or have those four fields alone.
func ParseVariances(r io.Reader) ([]ResidueVariance, error) {
	in := bufio.NewScanner(r)
	ret := make([]ResidueVariance, 0, 100)
	n := 0
	for in.Scan() {
		n++
		if n == 1 {
			continue
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "RES" {
			fields = fields[1:]
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 fields, got %d", n, len(fields))
		}
		resseq, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		variance, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		ret = append(ret, ResidueVariance{ResSeq: resseq, ResName: fields[1], Variance: variance})
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no residues")
	}
	return ret, nil
}
