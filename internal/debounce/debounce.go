// Package debounce collapses bursts of calls into one trailing execution.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrStopped = errors.New("debouncer stopped")

// Debouncer runs fn once per quiet window with the argument of the last
// Trigger. It never runs on the leading edge and never queues suppressed
// calls. The zero value is not usable; build one with New.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// A newer Trigger or a Cancel invalidated this timer after it fired.
		if d.gen != gen || d.stopped {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fn(arg)
	})
}

// Cancel drops the pending execution, if any, and reports whether there was
// one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	return pending
}

// Stop cancels any pending execution and turns later Triggers into no-ops.
// Owners call it on teardown.
func (d *Debouncer[T]) Stop() {
	d.Cancel()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

type outcome[R any] struct {
	value R
	err   error
}

type request[T any] struct {
	ctx context.Context
	arg T
}

// Call is the waitable form of Debouncer: every caller that arrives inside
// one quiet window blocks until the single trailing execution finishes and
// receives its result.
type Call[T, R any] struct {
	debouncer *Debouncer[request[T]]
	fn        func(context.Context, T) (R, error)

	mu      sync.Mutex
	waiters []chan outcome[R]
	stopped bool
}

func NewCall[T, R any](wait time.Duration, fn func(context.Context, T) (R, error)) *Call[T, R] {
	c := &Call[T, R]{fn: fn}
	c.debouncer = New(wait, c.run)
	return c
}

func (c *Call[T, R]) Do(ctx context.Context, arg T) (R, error) {
	ch := make(chan outcome[R], 1)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		var zero R
		return zero, ErrStopped
	}
	c.waiters = append(c.waiters, ch)
	c.debouncer.Trigger(request[T]{ctx: ctx, arg: arg})
	c.mu.Unlock()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

func (c *Call[T, R]) run(req request[T]) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	// An earlier execution already answered everyone in this window.
	if len(waiters) == 0 {
		return
	}

	value, err := c.fn(req.ctx, req.arg)
	for _, ch := range waiters {
		ch <- outcome[R]{value: value, err: err}
	}
}

// Stop cancels the pending execution and releases every waiting caller with
// ErrStopped.
func (c *Call[T, R]) Stop() {
	c.debouncer.Stop()

	c.mu.Lock()
	c.stopped = true
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	var zero R
	for _, ch := range waiters {
		ch <- outcome[R]{value: zero, err: ErrStopped}
	}
}
