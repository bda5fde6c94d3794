// Package pool provides a small fixed-size task executor with a bounded
// "no-wait" submission path. Regular Submit blocks until the queue accepts
// the task; SubmitNoWait is for fire-and-forget work from latency-sensitive
// callers and throttles itself when too many no-wait tasks are already in
// flight, logging a rate-limited warning so runaway producers get noticed
// instead of silently ballooning the queue.
package pool
