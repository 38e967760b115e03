/*
 * job.go, part of ample.
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

//Package job runs external programs with a timeout, a log file and a list of
//outputs they must produce, and provides a bounded pool to run work in parallel.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rmera/ample"
)

//Job is one invocation of an external program.
type Job struct {
	Name     string //used for the default log file name
	Command  string
	Args     []string
	Stdin    string        //written to the program's standard input, if not empty
	Dir      string        //working directory; relative Expected and LogFile paths refer to it
	Timeout  time.Duration //0 means no timeout
	LogFile  string        //stdout and stderr go here. Defaults to <Dir>/<Name>.log
	Expected []string      //files that must exist after a successful run
	Env      []string      //added to the environment of the current process
}

//New returns a Job that runs command with args in dir.
func New(name, command, dir string, args ...string) *Job {
	return &Job{Name: name, Command: command, Dir: dir, Args: args}
}

//SetTimeout sets the time after which the program is killed.
func (J *Job) SetTimeout(t time.Duration) *Job {
	J.Timeout = t
	return J
}

//Expect adds files that must exist after the program finishes.
func (J *Job) Expect(files ...string) *Job {
	J.Expected = append(J.Expected, files...)
	return J
}

//Log returns the path of the log file of the job.
func (J *Job) Log() string {
	l := J.LogFile
	if l == "" {
		name := J.Name
		if name == "" {
			name = filepath.Base(J.Command)
		}
		l = name + ".log"
	}
	return J.path(l)
}

func (J *Job) path(p string) string {
	if filepath.IsAbs(p) || J.Dir == "" {
		return p
	}
	return filepath.Join(J.Dir, p)
}

//CommandLine returns the command and its arguments as one string.
func (J *Job) CommandLine() string {
	return strings.Join(append([]string{J.Command}, J.Args...), " ")
}

//Run executes the job and waits for it. A non-zero exit, a timeout or a missing
//expected output give a backend error that carries the path of the log file.
//Cancelling ctx kills the program.
func (J *Job) Run(ctx context.Context) error {
	if J.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, J.Timeout)
		defer cancel()
	}
	logname := J.Log()
	logfile, err := os.Create(logname)
	if err != nil {
		return ample.NewBackendError("", err, "%s: creating log file", J.Name)
	}
	defer logfile.Close()
	fmt.Fprintf(logfile, "# %s\n", J.CommandLine())
	cmd := exec.CommandContext(ctx, J.Command, J.Args...)
	cmd.Dir = J.Dir
	cmd.Stdout = logfile
	cmd.Stderr = logfile
	if len(J.Env) > 0 {
		cmd.Env = append(os.Environ(), J.Env...)
	}
	if J.Stdin != "" {
		cmd.Stdin = strings.NewReader(J.Stdin)
	}
	log.WithFields(log.Fields{"job": J.Name, "dir": J.Dir}).Debugf("running %s", J.CommandLine())
	start := time.Now()
	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ample.NewBackendError(logname, ctx.Err(), "%s: killed after %s", J.Name, time.Since(start).Round(time.Millisecond))
	}
	if ctx.Err() != nil {
		return ample.NewBackendError(logname, ctx.Err(), "%s: cancelled", J.Name)
	}
	if err != nil {
		return ample.NewBackendError(logname, err, "%s: %s failed", J.Name, filepath.Base(J.Command))
	}
	missing := make([]string, 0)
	for _, v := range J.Expected {
		if _, err := os.Stat(J.path(v)); err != nil {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return ample.NewBackendError(logname, nil, "%s: missing output files: %s", J.Name, strings.Join(missing, ", "))
	}
	return nil
}

//CheckExecutable returns a configuration error if exe can't be found or run.
func CheckExecutable(exe string) (string, error) {
	path, err := exec.LookPath(exe)
	if err != nil {
		return "", ample.NewConfigError("cannot find executable %q: %s", exe, err.Error())
	}
	return path, nil
}
