package store

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/semaphore"
)

// Async wraps Store so the event-driven scheduler that drives sessions
// never blocks on bbolt I/O directly. Each call dispatches the
// corresponding blocking Store call onto a bounded worker pool (a
// counting semaphore gates concurrency) and awaits its completion.
type Async struct {
	s   *Store
	sem *semaphore.Weighted
}

// NewAsync wraps s with a façade backed by at most workers concurrent
// blocking calls.
func NewAsync(s *Store, workers int) *Async {
	if workers <= 0 {
		workers = 4
	}
	return &Async{s: s, sem: semaphore.NewWeighted(int64(workers))}
}

// Transaction runs fn on the worker pool and awaits its result.
func (a *Async) Transaction(ctx context.Context, fn func(*Tx) error) error {
	return a.run(ctx, func() error { return a.s.Transaction(fn) })
}

// View runs fn on the worker pool and awaits its result.
func (a *Async) View(ctx context.Context, fn func(*Tx) error) error {
	return a.run(ctx, func() error { return a.s.View(fn) })
}

// Put dispatches a single-key write.
func (a *Async) Put(ctx context.Context, bucket, key string, value any) error {
	return a.run(ctx, func() error { return a.s.Put(bucket, key, value) })
}

// Get dispatches a single-key read.
func (a *Async) Get(ctx context.Context, bucket, key string, out any) (bool, error) {
	var found bool
	err := a.run(ctx, func() error {
		f, err := a.s.Get(bucket, key, out)
		found = f
		return err
	})
	return found, err
}

// Delete dispatches a single-key delete.
func (a *Async) Delete(ctx context.Context, bucket, key string) error {
	return a.run(ctx, func() error { return a.s.Delete(bucket, key) })
}

// Backup dispatches a full-database snapshot write to the worker pool.
func (a *Async) Backup(ctx context.Context, w io.Writer) error {
	return a.run(ctx, func() error { return a.s.Backup(w) })
}

// run acquires a worker slot, runs blocking on a dedicated goroutine,
// and awaits either its completion or ctx cancellation. A failure to
// acquire a slot or join the worker surfaces as a generic Internal-class
// error, matching §4.3's "failure to join the worker surfaces as
// Internal."
func (a *Async) run(ctx context.Context, blocking func() error) error {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("store: internal: acquire worker: %w", err)
	}
	defer a.sem.Release(1)

	done := make(chan error, 1)
	go func() {
		done <- blocking()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("store: internal: %w", ctx.Err())
	}
}
