// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workers

import (
	"sync"

	"go.uber.org/atomic"
)

var (
	_ Workers = (*ParallelWorkers)(nil)
	_ Job     = (*ParallelJob)(nil)
)

// ParallelWorkers bounds concurrent task execution with a shared semaphore.
// Jobs from different callers interleave; each job tracks its own error.
type ParallelWorkers struct {
	count int
	sem   chan struct{}

	stopped atomic.Bool
}

func NewParallel(workers int) Workers {
	return &ParallelWorkers{
		count: workers,
		sem:   make(chan struct{}, workers),
	}
}

func (w *ParallelWorkers) NewJob(backlog int) (Job, error) {
	if w.stopped.Load() {
		return nil, ErrShutdown
	}
	return &ParallelJob{pool: w, backlog: backlog}, nil
}

// Stop rejects new jobs. Tasks already enqueued run to completion so
// outstanding Wait calls still return.
func (w *ParallelWorkers) Stop() {
	w.stopped.Store(true)
}

type ParallelJob struct {
	pool    *ParallelWorkers
	backlog int

	wg      sync.WaitGroup
	err     atomic.Error
	cleanup func()
}

func (j *ParallelJob) Go(f func() error) {
	j.wg.Add(1)
	go func() {
		j.pool.sem <- struct{}{}
		defer func() {
			<-j.pool.sem
			j.wg.Done()
		}()
		if j.pool.stopped.Load() {
			j.err.CompareAndSwap(nil, ErrShutdown)
			return
		}
		if j.err.Load() != nil {
			// A sibling task already failed, skip the work.
			return
		}
		if err := f(); err != nil {
			j.err.CompareAndSwap(nil, err)
		}
	}()
}

func (j *ParallelJob) Done(cleanup func()) {
	j.cleanup = cleanup
}

func (j *ParallelJob) Wait() error {
	j.wg.Wait()
	if j.cleanup != nil {
		j.cleanup()
	}
	return j.err.Load()
}

func (j *ParallelJob) Workers() int {
	return j.pool.count
}
