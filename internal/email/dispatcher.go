package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/quizlearner/backend/internal/worker"
)

const sendTimeout = 45 * time.Second

// Dispatcher delivers mail asynchronously on a worker pool so request
// handlers don't block on the mail provider. Failures are logged, not
// surfaced to the requester.
type Dispatcher struct {
	mailer Mailer
	pool   *worker.Pool[error]
	logger *slog.Logger
}

func NewDispatcher(mailer Mailer, workers int, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		mailer: mailer,
		pool:   worker.NewPool[error](workers, 32),
		logger: logger,
	}
	go d.drain()
	return d
}

func (d *Dispatcher) drain() {
	for res := range d.pool.Results() {
		if res.Output != nil {
			d.logger.Error("email delivery failed", "job_id", res.JobID, "error", res.Output)
		}
	}
}

// Enqueue schedules one email for delivery. It reports false when the
// dispatcher is shut down.
func (d *Dispatcher) Enqueue(jobID, to, subject, body string) bool {
	return d.pool.Submit(jobID, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return d.mailer.Send(ctx, to, subject, body)
	})
}

func (d *Dispatcher) Close() {
	d.pool.Close()
}
