/*
 * pool.go, part of ample.
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

package job

import (
	"context"
	"fmt"
	"sync"
)

//Task is one unit of work for a Pool.
type Task func(ctx context.Context) error

//Pool runs tasks with at most Size of them at the same time.
type Pool struct {
	Size int
}

//NewPool returns a pool of the given size. Sizes below 1 are taken as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{Size: size}
}

//Run executes every task and waits for all of them. The returned slice has the
//error of each task in the position of the task. A task that panics gets an
//error instead of bringing down the rest. Tasks not yet started when ctx is
//cancelled are not run, and get ctx's error.
func (P *Pool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	sem := make(chan struct{}, P.Size)
	var wg sync.WaitGroup
	for i, t := range tasks {
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			for j := i; j < len(tasks); j++ {
				errs[j] = ctx.Err()
			}
			break
		}
		wg.Add(1)
		go func(i int, t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			errs[i] = t(ctx)
		}(i, t)
	}
	wg.Wait()
	return errs
}
