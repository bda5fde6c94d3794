package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wireform/wireform/pool"
)

func TestSubmitRunsTasks(t *testing.T) {
	e := pool.New(4)
	defer e.Shutdown()

	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := e.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()
	if n.Load() != 100 {
		t.Fatalf("want 100 tasks run, got %d", n.Load())
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	e := pool.New(1)
	e.Shutdown()
	if err := e.Submit(func() {}); err != pool.ErrShutdown {
		t.Fatalf("want ErrShutdown, got %v", err)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	e := pool.New(2)
	var n atomic.Int64
	for i := 0; i < 20; i++ {
		if err := e.Submit(func() {
			time.Sleep(time.Millisecond)
			n.Add(1)
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	e.Shutdown()
	if n.Load() != 20 {
		t.Fatalf("shutdown must drain queued tasks, got %d of 20", n.Load())
	}
	// idempotent
	e.Shutdown()
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	pool.SetLogger(zap.New(core))
	defer pool.SetLogger(zap.NewNop())

	e := pool.New(1)
	defer e.Shutdown()

	done := make(chan struct{})
	if err := e.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Submit(func() { close(done) }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker died after task panic")
	}
	if logs.FilterMessage("task panicked").Len() != 1 {
		t.Fatalf("panic should be logged, got %d entries", logs.FilterMessage("task panicked").Len())
	}
}

// A producer that outruns a small no-wait ceiling must be throttled and
// warned about; a big enough ceiling lets the same burst run unimpeded.
func TestSubmitNoWaitBackpressure(t *testing.T) {
	const tasks = 10
	const taskTime = 100 * time.Millisecond

	run := func(maxNoWait int) (time.Duration, int) {
		core, logs := observer.New(zapcore.WarnLevel)
		pool.SetLogger(zap.New(core))
		defer pool.SetLogger(zap.NewNop())

		e := pool.New(tasks, pool.WithMaxNoWait(maxNoWait), pool.WithQueueSize(tasks*2))
		start := time.Now()
		var wg sync.WaitGroup
		for i := 0; i < tasks; i++ {
			wg.Add(1)
			if err := e.SubmitNoWait(func() {
				defer wg.Done()
				time.Sleep(taskTime)
			}); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
		wg.Wait()
		elapsed := time.Since(start)
		e.Shutdown()
		return elapsed, logs.FilterMessage("no-wait submissions are saturated; throttling producer").Len()
	}

	elapsed, warns := run(6)
	if elapsed < 2*taskTime-10*time.Millisecond {
		t.Fatalf("throttled burst finished too fast: %v", elapsed)
	}
	if warns == 0 {
		t.Fatalf("saturation should be logged")
	}

	elapsed, warns = run(2 * tasks)
	if elapsed > 2*taskTime {
		t.Fatalf("unthrottled burst took %v, want about %v", elapsed, taskTime)
	}
	if warns != 0 {
		t.Fatalf("no warning expected below the ceiling, got %d", warns)
	}
}

func TestInFlightNoWaitSettlesToZero(t *testing.T) {
	e := pool.New(2)
	defer e.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		if err := e.SubmitNoWait(func() { wg.Done() }); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()
	deadline := time.Now().Add(time.Second)
	for e.InFlightNoWait() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("in-flight count stuck at %d", e.InFlightNoWait())
		}
		time.Sleep(time.Millisecond)
	}
}
