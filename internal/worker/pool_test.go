package worker_test

import (
	"testing"
	"time"

	"github.com/quizlearner/backend/internal/worker"
)

func TestPoolDeliversResults(t *testing.T) {
	p := worker.NewPool[int](2, 4)

	if !p.Submit("double", func() int { return 21 * 2 }) {
		t.Fatal("Submit rejected a job on an open pool")
	}

	select {
	case res := <-p.Results():
		if res.JobID != "double" || res.Output != 42 {
			t.Errorf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}
	p.Close()
}

func TestCloseReleasesResultConsumers(t *testing.T) {
	p := worker.NewPool[error](2, 4)
	p.Submit("noop", func() error { return nil })

	drained := make(chan struct{})
	go func() {
		for range p.Results() {
		}
		close(drained)
	}()

	p.Close()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("results channel did not close after Close")
	}
}
