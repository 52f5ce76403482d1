package worker

import (
	"context"
	"sync"

	"github.com/martinsuchenak/toposeed/internal/log"
)

// WorkerPool runs jobs on a fixed number of goroutines
type WorkerPool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// Job represents a unit of work
type Job struct {
	ID      string
	Handler func(context.Context) error
	Result  chan<- Result
}

// Result is the outcome of one job
type Result struct {
	JobID string
	Err   error
}

// NewWorkerPool creates a pool whose jobs run under ctx
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the worker goroutines
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Debug("Worker pool started", "workers", p.maxWorkers)
}

// Stop waits for queued jobs to finish and stops the workers
func (p *WorkerPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
}

// Cancel cancels the context of running and queued jobs
func (p *WorkerPool) Cancel() {
	p.cancel()
}

// Submit queues a job, blocking while every worker is busy
func (p *WorkerPool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		err := p.ctx.Err()
		if err == nil {
			log.Trace("Worker executing job", "worker_id", id, "job_id", job.ID)
			err = job.Handler(p.ctx)
		}
		if job.Result != nil {
			job.Result <- Result{JobID: job.ID, Err: err}
		}
	}
}

// RunAll runs jobs on a pool of maxWorkers and returns the first error.
// The first failure cancels every job that has not finished.
func RunAll(ctx context.Context, maxWorkers int, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	pool := NewWorkerPool(ctx, maxWorkers)
	results := make(chan Result, len(jobs))
	pool.Start()

	var first error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			if r.Err != nil && first == nil {
				first = r.Err
				pool.Cancel()
			}
		}
	}()

	submitted := 0
	for _, job := range jobs {
		job.Result = results
		if err := pool.Submit(job); err != nil {
			break
		}
		submitted++
	}
	pool.Stop()
	close(results)
	<-done

	if first == nil && submitted < len(jobs) {
		first = ctx.Err()
	}
	return first
}
