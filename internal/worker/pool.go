package worker

import "sync"

type Job[T any] func() T

type Result[T any] struct {
	JobID  string
	Output T
}

// Pool runs submitted jobs on a fixed set of goroutines. Results are
// delivered on a buffered channel in completion order.
type Pool[T any] struct {
	jobs    chan jobWrapper[T]
	results chan Result[T]
	done    chan struct{}
	wg      sync.WaitGroup
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

func NewPool[T any](workerCount int, bufferSize int) *Pool[T] {
	p := &Pool[T]{
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
		done:    make(chan struct{}),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case job := <-p.jobs:
			output := job.fn()
			select {
			case p.results <- Result[T]{JobID: job.id, Output: output}:
			case <-p.done:
				return
			}
		}
	}
}

// Submit enqueues a job. It blocks when the queue is full and reports false
// after Close.
func (p *Pool[T]) Submit(id string, fn Job[T]) bool {
	select {
	case p.jobs <- jobWrapper[T]{id: id, fn: fn}:
		return true
	case <-p.done:
		return false
	}
}

func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close stops the workers and, once they have exited, closes the results
// channel so consumers ranging over it terminate. Jobs still queued are
// dropped.
func (p *Pool[T]) Close() {
	close(p.done)
	p.wg.Wait()
	close(p.results)
}
