/*
 * tools.go, part of ample.
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

	"github.com/spf13/cobra"

	"github.com/rmera/ample"
	"github.com/rmera/ample/ensemble"
	"github.com/rmera/ample/report"
)

var (
	list       bool
	importOut  string
	importZstd bool
)

//summaryCmd prints the ensembles of a finished run.
var summaryCmd = &cobra.Command{
	Use:   "summary <ensembles.json | work dir>",
	Short: "Summarize the ensembles of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			if path, err = ensemble.FindRecords(path); err != nil {
				return err
			}
		}
		recs, err := ensemble.ReadRecords(path)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if err := report.Summary(w, recs); err != nil {
			return err
		}
		if list {
			fmt.Fprintln(w)
			for _, r := range recs {
				fmt.Fprintf(w, "%s %s\n", r.Name, r.Path)
			}
		}
		return nil
	},
}

//importCmd writes the metadata for ensembles built elsewhere.
var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Take the PDB files in a directory as ready-made ensembles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := ensemble.ImportEnsembles(args[0])
		if err != nil {
			return err
		}
		ample.SortRecords(recs)
		if err := os.MkdirAll(importOut, 0o755); err != nil {
			return err
		}
		path, err := ensemble.WriteRecords(filepath.Join(importOut, ensemble.MetadataFile), recs, importZstd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d ensembles imported, metadata in %s\n", len(recs), path)
		return nil
	},
}

//defaultsCmd writes the default configuration, as a starting point.
var defaultsCmd = &cobra.Command{
	Use:   "defaults <config.yaml>",
	Short: "Write the default configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ample.DefaultConfig().Write(args[0])
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&list, "list", false, "Also print one line per ensemble")
	importCmd.Flags().StringVar(&importOut, "work-dir", ".", "Where to write the metadata")
	importCmd.Flags().BoolVar(&importZstd, "zstd", false, "Compress the metadata")
	rootCmd.AddCommand(summaryCmd, importCmd, defaultsCmd)
}
