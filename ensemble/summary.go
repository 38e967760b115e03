/*
 * summary.go, part of ample.
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
	"fmt"
	"io"
	"strings"

	"github.com/rmera/ample"
	"github.com/rmera/ample/report"
)

//Summary is what a run leaves behind: the records, what was skipped and what failed.
type Summary struct {
	RunID        string
	WorkDir      string
	MetadataFile string
	State        State
	Records      []*ample.Record
	Stats        Stats
	Failures     []BranchFailure
}

//Write prints a human-readable account of the run to w.
func (S *Summary) Write(w io.Writer) error {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Run %s finished as %s in %s\n", S.RunID, S.State, S.WorkDir)
	fmt.Fprintf(b, "Clusters: %d  Truncation levels: %d (%d skipped)  Subclusters: %d\n",
		S.Stats.Clusters, S.Stats.Levels, S.Stats.SkippedLevels, S.Stats.Subclusters)
	fmt.Fprintf(b, "Radii skipped: %d degenerate, %d duplicate, %d metric\n",
		S.Stats.Degenerate, S.Stats.Duplicate, S.Stats.MetricSkips)
	if S.MetadataFile != "" {
		fmt.Fprintf(b, "Metadata: %s\n", S.MetadataFile)
	}
	if len(S.Failures) > 0 {
		fmt.Fprintf(b, "\n%d failure(s):\n", len(S.Failures))
		for _, f := range S.Failures {
			fmt.Fprintf(b, "  %s\n", f.String())
		}
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if len(S.Records) == 0 {
		return nil
	}
	return report.Summary(w, S.Records)
}
