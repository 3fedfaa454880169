// Package worker runs jobs on a bounded set of goroutines and hands the
// results back in submission order.
package worker

import (
	"context"
	"sort"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index int
	res   Result
}

// Pool manages a pool of workers that execute jobs concurrently. A pool
// with zero workers executes each job in the goroutine that submits it.
// The first failing job cancels the context seen by the remaining jobs.
type Pool struct {
	workers   int
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	jobQueue  chan indexedJob
	results   chan indexedResult
	collected []indexedResult
	done      chan struct{}
	wg        sync.WaitGroup
	submitted int
	waitOnce  sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(ctx context.Context, workers int) *Pool {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 0 {
		workers = 0
	}
	cctx, cancel := context.WithCancel(ctx)
	buf := workers * 2
	if buf == 0 {
		buf = 1
	}
	return &Pool{
		workers:  workers,
		parent:   ctx,
		ctx:      cctx,
		cancel:   cancel,
		jobQueue: make(chan indexedJob, buf),
		results:  make(chan indexedResult, buf),
		done:     make(chan struct{}),
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	if p.workers == 0 {
		return
	}
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) collect() {
	defer close(p.done)
	for r := range p.results {
		p.collected = append(p.collected, r)
		if r.res.GetError() != nil {
			p.cancel()
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				return
			}
			p.results <- indexedResult{index: j.index, res: j.job.Execute(p.ctx)}
		}
	}
}

// Submit submits a job to the pool for execution. Jobs submitted after the
// pool has been canceled are dropped.
func (p *Pool) Submit(job Job) {
	idx := p.submitted
	p.submitted++
	if p.workers == 0 {
		if p.ctx.Err() != nil {
			return
		}
		res := job.Execute(p.ctx)
		p.collected = append(p.collected, indexedResult{index: idx, res: res})
		if res.GetError() != nil {
			p.cancel()
		}
		return
	}
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- indexedJob{index: idx, job: job}:
	}
}

// Wait waits for all submitted jobs and returns their results in submission
// order together with the error of the earliest failed job. If no job
// failed but the parent context has ended, its error is returned.
func (p *Pool) Wait() ([]Result, error) {
	p.waitOnce.Do(func() {
		if p.workers > 0 {
			close(p.jobQueue)
			p.wg.Wait()
			close(p.results)
			<-p.done
		}
	})
	parentErr := p.parent.Err()
	p.cancel()

	sort.Slice(p.collected, func(i, j int) bool { return p.collected[i].index < p.collected[j].index })
	out := make([]Result, len(p.collected))
	var firstErr error
	for i, r := range p.collected {
		out[i] = r.res
		if firstErr == nil && r.res.GetError() != nil {
			firstErr = r.res.GetError()
		}
	}
	if firstErr != nil {
		return out, firstErr
	}
	return out, parentErr
}

// Shutdown cancels outstanding jobs and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	_, _ = p.Wait()
}
