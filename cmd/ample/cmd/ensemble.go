/*
 * ensemble.go, part of ample.
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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rmera/ample"
	"github.com/rmera/ample/ensemble"
)

var (
	configFile string
	modelsDir  string
	workDir    string
	nproc      int
	submit     bool
)

//loadConfig reads the configuration file, if given, and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (*ample.Config, error) {
	cfg := ample.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = ample.LoadConfig(configFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("models") {
		cfg.ModelsDir = modelsDir
	}
	if cmd.Flags().Changed("work-dir") {
		cfg.WorkDir = workDir
	}
	if cmd.Flags().Changed("nproc") {
		cfg.NProc = nproc
	}
	return cfg, cfg.Validate()
}

//ensembleCmd runs the whole pipeline on a directory of decoys.
var ensembleCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Cluster, truncate and subcluster the decoys into ensembles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var models []*ample.DecoyModel
		if cfg.Import.EnsemblesDir == "" && cfg.Import.ClusterDir == "" {
			if cfg.ModelsDir == "" {
				return ample.NewConfigError("no models directory given")
			}
			if models, err = ample.DecoysFromDir(cfg.ModelsDir); err != nil {
				return err
			}
		}
		if submit {
			return writeJob(cmd, cfg, models)
		}
		E, err := ensemble.New(cfg)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
			return err
		}
		if err := teeLog(filepath.Join(cfg.WorkDir, "ample.log")); err != nil {
			return err
		}
		log.WithField("run", E.RunID).Infof("ensembling %d models in %s", len(models), cfg.WorkDir)
		ctx, cancel := signalContext()
		defer cancel()
		S, err := E.Run(ctx, models)
		if S != nil {
			if werr := S.Write(cmd.OutOrStdout()); werr != nil {
				log.Warn(werr)
			}
		}
		return err
	},
}

//writeJob saves a run descriptor and a script that runs it, for a batch queue.
func writeJob(cmd *cobra.Command, cfg *ample.Config, models []*ample.DecoyModel) error {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return err
	}
	R := ensemble.NewRunDescriptor(cfg, models)
	desc, err := filepath.Abs(filepath.Join(cfg.WorkDir, ensemble.DescriptorFile))
	if err != nil {
		return err
	}
	if err := R.Write(desc); err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		exe = "ample"
	}
	script := filepath.Join(cfg.WorkDir, "ensemble_job.sh")
	if err := ensemble.WriteSubmitScript(script, exe, desc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: submit %s\n", R.ID, script)
	return nil
}

//subjobCmd runs a descriptor written by "ensemble --submit".
var subjobCmd = &cobra.Command{
	Use:   "subjob <descriptor.json>",
	Short: "Run a saved ensembling job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		R, err := ensemble.LoadRunDescriptor(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(R.WorkDir, 0o755); err != nil {
			return err
		}
		if err := teeLog(filepath.Join(R.WorkDir, "ample.log")); err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		S, err := R.Execute(ctx)
		if S != nil {
			if werr := S.Write(cmd.OutOrStdout()); werr != nil {
				log.Warn(werr)
			}
		}
		return err
	},
}

func init() {
	ensembleCmd.Flags().StringVar(&configFile, "config", "", "YAML configuration file")
	ensembleCmd.Flags().StringVar(&modelsDir, "models", "", "Directory with the decoys, as PDB files")
	ensembleCmd.Flags().StringVar(&workDir, "work-dir", ".", "Working directory of the run")
	ensembleCmd.Flags().IntVar(&nproc, "nproc", 1, "Number of branches processed at the same time")
	ensembleCmd.Flags().BoolVar(&submit, "submit", false, "Write a job descriptor and submission script instead of running")
	rootCmd.AddCommand(ensembleCmd, subjobCmd)
}
