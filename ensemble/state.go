/*
 * state.go, part of ample.
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
	"errors"
	"fmt"
	"strings"
)

//State is a stage of the ensembling of a run or of one of its branches.
type State int

const (
	Init State = iota
	Import
	Clustering
	Truncating
	Subclustering
	SideChainApply
	Done
	Failed
)

var stateNames = []string{"init", "import", "clustering", "truncating", "subclustering", "side_chain_apply", "done", "failed"}

func (S State) String() string {
	if S < 0 || int(S) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(S))
	}
	return stateNames[S]
}

//next lists the allowed transitions.
var next = map[State][]State{
	Init:           {Import, Clustering, Failed},
	Import:         {Truncating, Done, Failed},
	Clustering:     {Truncating, Failed},
	Truncating:     {Subclustering, Done, Failed},
	Subclustering:  {SideChainApply, Truncating, Done, Failed},
	SideChainApply: {Subclustering, Truncating, Done, Failed},
}

//CanGo reports whether a run or branch in state S may move to t.
func (S State) CanGo(t State) bool {
	if S == t {
		return true
	}
	for _, v := range next[S] {
		if v == t {
			return true
		}
	}
	return false
}

//BranchFailure records a branch that was abandoned.
type BranchFailure struct {
	Branch string //e.g. "cluster 1" or "c1_t20"
	Stage  State
	Reason string
	Log    string //log file of the program that failed, if any
}

func (B BranchFailure) String() string {
	s := fmt.Sprintf("%s failed while %s: %s", B.Branch, B.Stage, B.Reason)
	if B.Log != "" {
		s += " (log: " + B.Log + ")"
	}
	return s
}

//ErrNoEnsembles is the cause of every RunError.
var ErrNoEnsembles = errors.New("no ensembles were produced")

//RunError is returned when a run ends without ensembles.
type RunError struct {
	WorkDir  string
	Failures []BranchFailure
}

func (E *RunError) Error() string {
	s := fmt.Sprintf("%s; check the working directory %s", ErrNoEnsembles.Error(), E.WorkDir)
	if len(E.Failures) > 0 {
		f := make([]string, len(E.Failures))
		for i, v := range E.Failures {
			f[i] = v.String()
		}
		s += ": " + strings.Join(f, "; ")
	}
	return s
}

func (E *RunError) Unwrap() error {
	return ErrNoEnsembles
}
