// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for running
// independent jobs, such as sorting several files, with bounded parallelism.
//
// Usage:
//
//	pool := workerpool.New(4)
//	defer pool.Close()
//
//	err := pool.Run(ctx, len(files), func(ctx context.Context, i int) error {
//	    return sortFile(ctx, files[i])
//	})
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// Pool is a persistent worker pool that can be reused across many Run calls.
// Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents one worker's share of a Run.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Run calls fn for each index in [0, n), handing indices to workers one at a
// time so that slow jobs do not hold up the rest. It blocks until every
// started job returns. Jobs not yet started when ctx is cancelled are
// skipped and reported as ctx's error. The errors of all jobs are combined
// in index order.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	errs := make([]error, n)
	job := func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return
		}
		if err := fn(ctx, i); err != nil {
			errs[i] = errors.Wrapf(err, "job %d", i)
		}
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		for i := range n {
			job(i)
		}
		return combine(errs)
	}

	var nextIdx atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					job(idx)
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
	return combine(errs)
}

func combine(errs []error) error {
	var err error
	for _, e := range errs {
		err = errors.CombineErrors(err, e)
	}
	return err
}
