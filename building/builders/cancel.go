// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builders

import "sync"

// CancelSignal tells every strategy building a slot to stop. Setting it is
// one way and idempotent; resetting, if it ever happens, belongs to the
// slot orchestration above this package.
type CancelSignal struct {
	once sync.Once
	done chan struct{}
}

func NewCancelSignal() *CancelSignal {
	return &CancelSignal{done: make(chan struct{})}
}

func (c *CancelSignal) Cancel() {
	c.once.Do(func() { close(c.done) })
}

func (c *CancelSignal) Cancelled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done exposes the signal for select loops.
func (c *CancelSignal) Done() <-chan struct{} {
	return c.done
}
