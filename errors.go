/*
 * errors.go, part of ample.
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

package ample

import (
	"errors"
	"fmt"
	"strings"
)

//The error classes of the pipeline. Use errors.Is on any error returned by
//this module to find out which one it belongs to.
var (
	//ErrConfig: missing executables, bad method names, impossible requests.
	//Aborts the whole run before any branch starts.
	ErrConfig = errors.New("configuration error")
	//ErrBackend: an external program failed, timed out or left no usable output.
	//Aborts only the branch where it happened.
	ErrBackend = errors.New("backend execution error")
	//ErrMetric: superposition didn't converge or the structures don't match.
	//Aborts only the level or radius being computed.
	ErrMetric = errors.New("metric computation error")
)

//Error is the error type of the pipeline. Besides the message, it carries its class,
//the log file of the program that failed (if any) and a decoration slice with the
//functions it went through.
type Error struct {
	class   error
	message string
	log     string
	err     error
	deco    []string
}

//Error implements the error interface.
func (err *Error) Error() string {
	msg := err.class.Error() + ": " + err.message
	if err.err != nil {
		msg += ": " + err.err.Error()
	}
	if err.log != "" {
		msg += " (log: " + err.log + ")"
	}
	return msg
}

//Is reports whether target is the class of the error.
func (err *Error) Is(target error) bool {
	return target == err.class
}

//Unwrap returns the underlying error, if any.
func (err *Error) Unwrap() error {
	return err.err
}

//Log returns the log file of the program that failed, or an empty string.
func (err *Error) Log() string {
	return err.log
}

//Critical is true for errors that must abort the whole run.
func (err *Error) Critical() bool {
	return err.class == ErrConfig
}

//Decorate adds dec to the decoration slice of the error and returns the resulting slice.
//An empty dec just returns the current slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Trace returns the decorations as a single string, innermost first.
func (err *Error) Trace() string {
	return strings.Join(err.deco, " <- ")
}

//NewConfigError returns a configuration error.
func NewConfigError(format string, a ...any) *Error {
	return &Error{class: ErrConfig, message: fmt.Sprintf(format, a...)}
}

//NewBackendError returns a backend error for a program that logged to logfile.
//cause may be nil.
func NewBackendError(logfile string, cause error, format string, a ...any) *Error {
	return &Error{class: ErrBackend, message: fmt.Sprintf(format, a...), log: logfile, err: cause}
}

//NewMetricError returns a metric computation error.
func NewMetricError(cause error, format string, a ...any) *Error {
	return &Error{class: ErrMetric, message: fmt.Sprintf(format, a...), err: cause}
}

//ErrDecorate adds caller to the decorations of err, if err is an *Error,
//and returns err. Other errors are returned untouched.
func ErrDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//LogOf returns the log file attached to err, if any.
func LogOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.log
	}
	return ""
}
