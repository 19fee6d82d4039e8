// Package workerpool provides the fork-join task submitter the
// defragmenter's tree loader uses to parallelize directory traversal: a
// bounded number of concurrent workers, with submissions beyond that bound
// running inline in the caller instead of queueing.
package workerpool

import (
	"golang.org/x/sync/semaphore"
)

// Pool is an explicit dependency, never a global singleton: callers
// construct one sized to the concurrency they want and pass it down to
// whatever needs to fan work out.
type Pool struct {
	sem *semaphore.Weighted
}

// New builds a pool that can run up to size tasks concurrently.
func New(size int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(size)}
}

// Handle is returned by Submit. Wait blocks until the submitted function has
// run to completion and returns its error.
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task behind this handle has finished.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Submit tries to acquire a slot in the pool with a non-blocking
// try_acquire. If one is free, fn runs in a new goroutine and Submit returns
// immediately with a handle to join on later. If the pool is saturated, fn
// runs inline in the calling goroutine before Submit returns, and the
// returned handle is already resolved.
func (p *Pool) Submit(fn func() error) *Handle {
	h := &Handle{done: make(chan struct{})}

	if p.sem.TryAcquire(1) {
		go func() {
			defer p.sem.Release(1)
			defer close(h.done)
			h.err = fn()
		}()
		return h
	}

	h.err = fn()
	close(h.done)
	return h
}
