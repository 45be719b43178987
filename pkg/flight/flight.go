package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Cache coalesces concurrent lookups of the same key into one call of work
// and keeps successful results. A result is held strongly until its TTL
// passes and weakly after that, so memory pressure can reclaim it.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]*entry[V]
	pending  map[K]*call[V]

	work func(context.Context, K) (V, error)

	// ttl is the strong-hold duration in nanoseconds; <= 0 never expires.
	ttl atomic.Int64

	// Timeout bounds each call of work. Work runs detached from the caller's
	// context because other callers may be waiting on the same result.
	Timeout time.Duration
}

type entry[V any] struct {
	w        weak.Pointer[V]
	strong   *V
	deadline time.Time
}

type call[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func New[K comparable, V any](ttl time.Duration, work func(context.Context, K) (V, error)) *Cache[K, V] {
	c := &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		pending:  make(map[K]*call[V]),
		work:     work,
		Timeout:  30 * time.Second,
	}
	c.Expiry(ttl)
	return c
}

// Expiry sets the strong-hold duration for future writes.
func (c *Cache[K, V]) Expiry(d time.Duration) {
	c.ttl.Store(int64(max(d, 0)))
}

// Get returns the cached value for k or computes it, sharing one call of work
// between concurrent callers. ctx only bounds the wait.
func (c *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	c.mu.Lock()
	if v, ok := c.lookup(k); ok {
		c.mu.Unlock()
		return v, nil
	}
	cl, ok := c.pending[k]
	if !ok {
		cl = &call[V]{done: make(chan struct{})}
		c.pending[k] = cl
		go c.run(k, cl)
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Forget drops any cached value for k.
func (c *Cache[K, V]) Forget(k K) {
	c.mu.Lock()
	delete(c.finished, k)
	c.mu.Unlock()
}

// Len is the number of keys with a live value.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.finished {
		if _, ok := c.lookup(k); ok {
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) run(k K, cl *call[V]) {
	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cl.val, cl.err = c.work(ctx, k)

	c.mu.Lock()
	if cl.err == nil {
		c.store(k, cl.val)
	}
	delete(c.pending, k)
	c.mu.Unlock()
	close(cl.done)
}

// lookup must be called with mu held.
func (c *Cache[K, V]) lookup(k K) (V, bool) {
	var zero V
	e, ok := c.finished[k]
	if !ok {
		return zero, false
	}
	if e.strong != nil && !e.deadline.IsZero() && time.Now().After(e.deadline) {
		e.strong = nil
	}
	vp := e.w.Value()
	if vp == nil {
		delete(c.finished, k)
		return zero, false
	}
	return *vp, true
}

// store must be called with mu held.
func (c *Cache[K, V]) store(k K, val V) {
	v := new(V)
	*v = val
	e := &entry[V]{w: weak.Make(v), strong: v}
	if d := time.Duration(c.ttl.Load()); d > 0 {
		e.deadline = time.Now().Add(d)
	}
	c.finished[k] = e
}
