/*
 * descriptor.go, part of ample.
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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmera/ample"
)

//DescriptorFile is the default name of the run descriptor in the working directory.
const DescriptorFile = "ensemble_job.json"

//RunDescriptor is everything a detached process needs to repeat a run: the configuration
//and the models. It is written before submitting the job to a batch queue, and the job
//runs "ample subjob <descriptor>".
type RunDescriptor struct {
	ID      string        `json:"id"`
	Created time.Time     `json:"created"`
	WorkDir string        `json:"work_dir"`
	Models  []string      `json:"models"`
	Config  *ample.Config `json:"config"`
}

//NewRunDescriptor returns a descriptor with a fresh ID.
func NewRunDescriptor(cfg *ample.Config, models []*ample.DecoyModel) *RunDescriptor {
	return &RunDescriptor{
		ID:      uuid.NewString(),
		Created: time.Now().UTC(),
		WorkDir: cfg.WorkDir,
		Models:  ample.Paths(models),
		Config:  cfg,
	}
}

//Write saves the descriptor as JSON. Model paths are made absolute, as the job
//may run from another directory.
func (R *RunDescriptor) Write(path string) error {
	for i, v := range R.Models {
		if abs, err := filepath.Abs(v); err == nil {
			R.Models[i] = abs
		}
	}
	data, err := json.MarshalIndent(R, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

//LoadRunDescriptor reads a descriptor written by Write and validates its configuration.
func LoadRunDescriptor(path string) (*RunDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run descriptor: %w", err)
	}
	R := new(RunDescriptor)
	if err := json.Unmarshal(data, R); err != nil {
		return nil, ample.NewConfigError("parsing run descriptor %s: %s", path, err.Error())
	}
	if R.Config == nil {
		return nil, ample.NewConfigError("run descriptor %s has no configuration", path)
	}
	if _, err := uuid.Parse(R.ID); err != nil {
		return nil, ample.NewConfigError("run descriptor %s has an invalid id %q", path, R.ID)
	}
	if err := R.Config.Validate(); err != nil {
		return nil, err
	}
	return R, nil
}

//Execute runs the ensembling described by R, under R's ID.
func (R *RunDescriptor) Execute(ctx context.Context) (*Summary, error) {
	E, err := New(R.Config)
	if err != nil {
		return nil, err
	}
	E.RunID = R.ID
	return E.Run(ctx, ample.DecoysFromPaths(R.Models))
}

//WriteSubmitScript writes a shell script that runs exe on the descriptor, suitable for
//a batch queue.
func WriteSubmitScript(path, exe, descriptor string) error {
	b := new(strings.Builder)
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(b, "cd %q || exit 1\n", filepath.Dir(descriptor))
	fmt.Fprintf(b, "exec %q subjob %q\n", exe, descriptor)
	return os.WriteFile(path, []byte(b.String()), 0o755)
}
