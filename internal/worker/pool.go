package worker

import (
	"context"
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

// task pairs a job with its submission order
type task struct {
	seq int
	job Job
}

type taskResult struct {
	seq    int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently
type Pool struct {
	workers    int
	jobQueue   chan task
	results    chan taskResult
	submitted  int
	collected  map[int]Result
	collector  chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a worker pool bound to ctx. Cancelling ctx stops the
// workers after their current job.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan task, workers*2),
		results:    make(chan taskResult, workers*2),
		collected:  make(map[int]Result),
		collector:  make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// collect drains results as they arrive so workers never block on a full channel
func (p *Pool) collect() {
	defer close(p.collector)
	for r := range p.results {
		p.collected[r.seq] = r.result
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := t.job.Execute(p.ctx)
			select {
			case p.results <- taskResult{seq: t.seq, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It returns false once the pool is shut down.
// Submit must not be called concurrently with itself or after Wait.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- task{seq: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait closes the queue, waits for the workers and returns the results in
// submission order. Jobs dropped by a shutdown leave a nil entry.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collector

	ordered := make([]Result, p.submitted)
	for seq, result := range p.collected {
		ordered[seq] = result
	}
	return ordered
}

// Shutdown cancels the pool and waits for running jobs to return
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
