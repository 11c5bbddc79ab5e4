// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool bounds how many tasks run at the same time.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a pool with the given concurrency limit. Non-positive values mean one worker.
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{workerCount: workerCount}
}

// RunAll executes every task to completion regardless of failures in the others.
// The result is aligned with tasks: results[i] is the outcome of tasks[i].
func (wp *WorkerPool) RunAll(ctx context.Context, tasks ...func(ctx context.Context) error) []error {
	results := make([]error, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			results[i] = task(ctx)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
