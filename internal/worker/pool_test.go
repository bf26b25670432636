package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	counter *atomic.Int32
	err     error
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return &countResult{err: j.err}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	var counter atomic.Int32
	pool := NewPool(3)
	pool.Start()

	const jobs = 10
	for i := 0; i < jobs; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Errorf("Expected %d results, got %d", jobs, len(results))
	}
	if got := counter.Load(); got != jobs {
		t.Errorf("Expected %d executions, got %d", jobs, got)
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	var counter atomic.Int32
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&countJob{counter: &counter})
	pool.Submit(&countJob{counter: &counter, err: fmt.Errorf("boom")})

	results := pool.Wait()
	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed result, got %d", failed)
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	var counter atomic.Int32
	pool := NewPool(0)
	pool.Start()

	pool.Submit(&countJob{counter: &counter})

	results := pool.Wait()
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

type blockingJob struct{}

func (j *blockingJob) Execute(ctx context.Context) Result {
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
	return &countResult{}
}

func TestPoolWithContext_CancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)
	pool.Start()

	pool.Submit(&blockingJob{})
	pool.Submit(&blockingJob{})

	cancel()

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not complete after context cancel")
	}
}
