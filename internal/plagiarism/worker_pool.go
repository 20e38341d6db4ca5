package plagiarism

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrPoolClosed = errors.New("worker pool is closed")

type Job interface {
	Execute(ctx context.Context) error
}

type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers. A size <= 0 sizes the pool from the CPU
// count, leaving a quarter of the cores to the rest of the system.
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		totalCPU := runtime.NumCPU()
		systemReserve := max(1, totalCPU/4)
		size = max(1, totalCPU-systemReserve)
		log.Debug().
			Int("totalCPU", totalCPU).
			Int("systemReserve", systemReserve).
			Msg("Sizing worker pool from CPU count")
	}
	log.Info().Int("workers", size).Msg("Worker pool initialized")

	poolCtx, cancel := context.WithCancel(ctx)
	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2), // Buffer 2x the worker count
		ctx:      poolCtx,
		cancel:   cancel,
	}

	pool.start()

	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// worker runs jobs until the queue is closed and drained
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		if err := job.Execute(p.ctx); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("Worker failed to execute job")
		}
	}
}

// Submit queues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// Close stops accepting jobs, lets queued jobs finish and waits for the workers.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

func (p *WorkerPool) Size() int {
	return p.workers
}
