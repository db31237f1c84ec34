package dashboard

import (
	"context"
	"sync"
)

// coalescer runs fn in the background with at most one call in flight and at
// most one pending. Triggers arriving while a call runs collapse into the
// single pending slot.
type coalescer struct {
	ctx context.Context
	fn  func(ctx context.Context)

	mu      sync.Mutex
	running bool
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

func newCoalescer(ctx context.Context, fn func(ctx context.Context)) *coalescer {
	return &coalescer{ctx: ctx, fn: fn}
}

// Trigger never blocks.
func (c *coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.running {
		c.pending = true
		return
	}
	c.running = true
	c.wg.Add(1)
	go c.loop()
}

func (c *coalescer) loop() {
	defer c.wg.Done()
	for {
		c.fn(c.ctx)

		c.mu.Lock()
		if !c.pending || c.closed {
			c.running, c.pending = false, false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// Close drops any pending call and waits for the running one to return.
func (c *coalescer) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}
