package tasks

import (
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	mu     sync.RWMutex
	jobs   chan func()
	wg     sync.WaitGroup
	closed bool
}

// NewPool starts workers goroutines reading from a queue of the given depth.
func NewPool(workers, depth int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if depth < workers {
		depth = workers
	}

	p := &Pool{jobs: make(chan func(), depth)}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit queues job without blocking. It reports false when the queue is
// full or the pool is closed.
func (p *Pool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
