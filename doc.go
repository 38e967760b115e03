/*
 * doc.go, part of ample.
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

/*
Package ample contains the data model, the configuration and the error types of the
ample ensembling pipeline, which turns a population of ab initio decoys into search
models for molecular replacement.

	**Pipeline**

	decoys -> cluster -> truncate (per cluster) -> subcluster (per truncation level)
	       -> side-chain treatment (per subcluster) -> ensemble files + metadata records

The stages live in subpackages:

	pdb         structure-file reading, writing and editing
	job         external program invocation with timeouts and a bounded worker pool
	metric      per-residue variance and pairwise distances between decoys
	cluster     decoy clustering backends
	truncate    variance-ranked residue truncation
	subcluster  radius-based subclustering
	sidechain   side-chain treatments
	ensemble    the orchestrator, metadata table and run descriptors
	report      summaries and plots

The Record type is the only contract consumed by the downstream molecular replacement stage.
*/
package ample
