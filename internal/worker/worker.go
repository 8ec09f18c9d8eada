// Package worker provides a small bounded worker pool used by the session
// refresh loop to score locations concurrently.
package worker

import (
	"context"
	"sync"
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
	done       chan struct{}
}

func NewPool[J any](numWorkers, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
		done:       make(chan struct{}),
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

func (p *Pool[J]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.drain(ctx)
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, job)
		}
	}
}

// drain processes whatever is already queued so submitters waiting on job
// completion are released even when the context is cancelled mid-batch.
func (p *Pool[J]) drain(ctx context.Context) {
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, job)
		default:
			return
		}
	}
}

// Submit enqueues a job, reporting false once the workers have exited.
func (p *Pool[J]) Submit(job J) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.done:
		return false
	}
}

// Done is closed after every worker has exited, whether by context
// cancellation or Stop.
func (p *Pool[J]) Done() <-chan struct{} {
	return p.done
}

// Stop closes the job channel and waits for in-flight work to finish.
func (p *Pool[J]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
