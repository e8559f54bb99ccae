package engine

import (
	"context"
	"errors"
	"sync"
)

// FetchFunc loads one snapshot attempt. The supplied context is cancelled
// when the attempt is superseded by a newer Fetch or when the controller
// closes; implementations should pass it to their transport so the underlying
// request is actually aborted rather than ignored.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Controller owns the lifecycle of one supersedable fetch. At most one
// attempt is in flight at a time: calling Fetch while an attempt is running
// cancels it outright, and the cancelled attempt's eventual resolution is
// discarded no matter how it resolves. Failed attempts stay failed until the
// caller explicitly retries; there is no automatic re-fetch.
type Controller[T any] struct {
	fetch  FetchFunc[T]
	notify func()

	mu     sync.Mutex
	phase  Phase
	result T
	err    error
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// NewController builds a Controller around fetch. notify is invoked after
// every state transition, outside the controller's lock; pass nil when no
// notification is needed.
func NewController[T any](fetch FetchFunc[T], notify func()) *Controller[T] {
	if notify == nil {
		notify = func() {}
	}
	return &Controller[T]{
		fetch:  fetch,
		notify: notify,
		phase:  PhaseIdle,
	}
}

// Fetch starts a new attempt, superseding and cancelling any attempt already
// in flight. The transition to Loading is observable synchronously, before
// the remote call resolves. Calling Fetch on a closed controller is a no-op.
func (c *Controller[T]) Fetch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.gen++
	gen := c.gen
	c.phase = PhaseLoading
	c.err = nil
	c.mu.Unlock()

	c.notify()

	go c.run(ctx, cancel, gen)
}

// run executes one attempt and applies its resolution unless superseded.
func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer cancel()

	result, err := c.fetch(ctx)

	c.mu.Lock()
	// Only the most recently started attempt may mutate state. A superseded
	// or closed attempt is discarded silently, success and failure alike.
	if c.closed || gen != c.gen || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if errors.Is(err, context.Canceled) {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.phase = PhaseError
		c.err = err
	} else {
		c.phase = PhaseDone
		c.result = result
		c.err = nil
	}
	c.cancel = nil
	c.mu.Unlock()

	c.notify()
}

// State returns the current phase together with the last applied result and
// error. The result is only meaningful when phase is PhaseDone, the error
// when phase is PhaseError.
func (c *Controller[T]) State() (Phase, T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.result, c.err
}

// Phase returns the current phase.
func (c *Controller[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Close cancels any in-flight attempt and rejects further fetches. It is the
// required teardown path: after Close, no attempt result will be applied.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}
