// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workers

// Workers is a bounded pool shared by concurrently running block builds.
// Pool capacity caps how much CPU any single build can steal from its
// siblings.
type Workers interface {
	// NewJob returns a fresh [Job] with room for [backlog] queued tasks.
	NewJob(backlog int) (Job, error)
	Stop()
}

// Job collects the tasks of one logical unit of work (e.g. one state-root
// calculation) and reports the first task error.
type Job interface {
	// Go enqueues [f]. Must not be called after [Done].
	Go(f func() error)
	// Done marks the job fully enqueued. [cleanup], if non-nil, runs after
	// the last task finishes.
	Done(cleanup func())
	// Wait blocks until all tasks finish and returns the first error.
	Wait() error
	// Workers returns the pool size, for callers sizing their shards.
	Workers() int
}
