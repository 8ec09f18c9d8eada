package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(i)
	}

	time.Sleep(50 * time.Millisecond)

	cancel()
	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job string) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(4, 100, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 100; i++ {
		go func() {
			pool.Submit("job")
		}()
	}

	time.Sleep(100 * time.Millisecond)

	cancel()
	pool.Stop()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestPool_DrainsQueuedJobsOnCancel(t *testing.T) {
	var processed atomic.Int64
	block := make(chan struct{})
	processor := func(ctx context.Context, job int) error {
		<-block
		processed.Add(1)
		return nil
	}

	pool := NewPool(1, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	// First job occupies the worker; the rest sit in the buffer.
	for i := 0; i < 5; i++ {
		pool.Submit(i)
	}

	cancel()
	close(block)

	select {
	case <-pool.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after cancel")
	}

	if processed.Load() != 5 {
		t.Errorf("expected queued jobs drained after cancel, processed %d of 5", processed.Load())
	}
	pool.Stop()
}

func TestPool_SubmitAfterWorkersExit(t *testing.T) {
	pool := NewPool(1, 1, func(ctx context.Context, job int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()
	<-pool.Done()

	if pool.Submit(1) {
		t.Error("Submit should report false once workers have exited")
	}
	pool.Stop()
}

func TestPool_GracefulShutdown(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		time.Sleep(10 * time.Millisecond)
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 50, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		pool.Submit(i)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	t.Logf("processed %d jobs before shutdown", processed.Load())
}
