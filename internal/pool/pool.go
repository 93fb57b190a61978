package pool

import (
	"context"
	"sync"
)

type Job func(ctx context.Context)

// WorkerPool bounds the number of documents being compressed at once.
// Submit never blocks the caller; jobs queue on the semaphore.
type WorkerPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func New(maxWorkers int) *WorkerPool {
	return &WorkerPool{
		sem: make(chan struct{}, maxWorkers),
	}
}

func (p *WorkerPool) Submit(ctx context.Context, job Job) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
			job(ctx)
		case <-ctx.Done():
		}
	}()
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
