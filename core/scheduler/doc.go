// Package scheduler provides the asynchronous task pool used to run
// synchronization work outside the request path.
//
// The Scheduler interface models a fire-and-forget queue: Enqueue either
// accepts a task and returns a Handle, or fails immediately with
// ErrUnavailable when the queue is full or the pool is stopped. Tasks that
// need to continue past their own invocation re-submit themselves with the
// remaining work; the pool itself never retries.
package scheduler
