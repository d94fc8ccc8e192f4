// Package parallel runs independent file jobs on a bounded number of workers.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Stats counts finished jobs.
type Stats struct {
	Succeeded uint64
	Failed    uint64
}

func (s Stats) Total() uint64 {
	return s.Succeeded + s.Failed
}

type Pool struct {
	wg        sync.WaitGroup
	work      chan func()
	closeWork func()
	succeeded atomic.Uint64
	failed    atomic.Uint64
}

// Start launches numWorkers workers, GOMAXPROCS when numWorkers < 1. With a single
// worker jobs run synchronously inside Go.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{closeWork: func() {}}
	if numWorkers > 1 {
		pool.work = make(chan func(), numWorkers)
		for range numWorkers {
			pool.wg.Go(func() {
				for f := range pool.work {
					f()
				}
			})
		}
		pool.closeWork = sync.OnceFunc(func() { close(pool.work) })
	}

	return pool
}

// Go queues job, blocking while all workers are busy. Go must not be called after Wait.
func (p *Pool) Go(job func() error) {
	f := func() {
		if err := job(); err != nil {
			p.failed.Add(1)
		} else {
			p.succeeded.Add(1)
		}
	}

	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting jobs, waits for the queued ones and returns the totals.
func (p *Pool) Wait() Stats {
	p.closeWork()
	p.wg.Wait()
	return Stats{
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}
