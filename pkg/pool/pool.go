// Package pool provides a bounded worker pool for concurrent fetches.
package pool

import "sync"

// WorkerPool runs submitted tasks across a fixed number of goroutines.
// The bound keeps concurrent downloads within external rate limits.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// New creates a worker pool with numWorkers goroutines and a task queue of
// the given size.
func New(numWorkers, taskQueueSize int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &WorkerPool{
		tasks: make(chan func(), taskQueueSize),
	}
	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit adds a task to the pool. Blocks when the queue is full.
func (p *WorkerPool) Submit(task func()) {
	p.tasks <- task
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (p *WorkerPool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
