package pool

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrShutdown is returned by Submit after Shutdown has begun.
var ErrShutdown = errors.New("pool: executor is shut down")

// warnInterval rate-limits the no-wait saturation warning.
const warnInterval = 10 * time.Second

// noWaitPoll is how often a throttled SubmitNoWait re-checks the ceiling.
const noWaitPoll = 5 * time.Millisecond

// Executor runs submitted tasks on a fixed set of worker goroutines.
type Executor struct {
	queue    chan func()
	workerWG sync.WaitGroup

	workers   int
	maxNoWait int64

	// Submission state
	mu       sync.RWMutex
	closed   atomic.Bool
	noWait   atomic.Int64
	lastWarn atomic.Int64
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	maxNoWait int
	queueSize int
}

// WithMaxNoWait sets the ceiling on concurrently in-flight no-wait tasks.
// The default is twice the worker count.
func WithMaxNoWait(n int) Option {
	return func(o *options) { o.maxNoWait = n }
}

// WithQueueSize sets the task queue's buffer. The default is four times the
// worker count.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// New creates an executor with the given number of workers and starts them.
// workers <= 0 means one worker per available CPU.
func New(workers int, opts ...Option) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers < 1 {
			workers = 1
		}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxNoWait <= 0 {
		o.maxNoWait = workers * 2
	}
	if o.queueSize <= 0 {
		o.queueSize = workers * 4
	}

	e := &Executor{
		queue:     make(chan func(), o.queueSize),
		workers:   workers,
		maxNoWait: int64(o.maxNoWait),
	}
	for i := 0; i < workers; i++ {
		e.workerWG.Add(1)
		go e.worker()
	}
	return e
}

// worker drains the queue until Shutdown closes it.
func (e *Executor) worker() {
	defer e.workerWG.Done()
	for fn := range e.queue {
		fn()
	}
}

// run executes one task with panic recovery; a panicking task must not take
// its worker down with it.
func run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("task panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}

// Submit enqueues a task, blocking until the queue accepts it. It returns
// ErrShutdown once Shutdown has begun.
func (e *Executor) Submit(fn func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		return ErrShutdown
	}
	e.queue <- func() { run(fn) }
	return nil
}

// SubmitNoWait enqueues a fire-and-forget task. When the number of no-wait
// tasks already in flight reaches the ceiling, the call throttles until a
// slot frees up and logs a rate-limited warning; a producer outrunning the
// pool is a bug worth surfacing, not something to buffer without bound.
func (e *Executor) SubmitNoWait(fn func()) error {
	for {
		n := e.noWait.Load()
		if n < e.maxNoWait {
			if e.noWait.CompareAndSwap(n, n+1) {
				break
			}
			continue
		}
		e.warnSaturated(n)
		time.Sleep(noWaitPoll)
		if e.closed.Load() {
			return ErrShutdown
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		e.noWait.Add(-1)
		return ErrShutdown
	}
	e.queue <- func() {
		defer e.noWait.Add(-1)
		run(fn)
	}
	return nil
}

// warnSaturated logs at most once per warnInterval.
func (e *Executor) warnSaturated(inflight int64) {
	now := time.Now().UnixNano()
	last := e.lastWarn.Load()
	if now-last < int64(warnInterval) {
		return
	}
	if !e.lastWarn.CompareAndSwap(last, now) {
		return
	}
	Logger().Warn("no-wait submissions are saturated; throttling producer",
		zap.Int64("inflight", inflight),
		zap.Int64("ceiling", e.maxNoWait))
}

// InFlightNoWait reports the number of no-wait tasks currently queued or
// running.
func (e *Executor) InFlightNoWait() int { return int(e.noWait.Load()) }

// Workers returns the executor's worker count.
func (e *Executor) Workers() int { return e.workers }

// Shutdown stops accepting tasks, waits for queued ones to finish and
// returns once every worker has exited. It is idempotent.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.closed.Swap(true) {
		e.mu.Unlock()
		return
	}
	close(e.queue)
	e.mu.Unlock()
	e.workerWG.Wait()
}
