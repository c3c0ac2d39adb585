package framepool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Ring is a bounded single-consumer FIFO of pooled buffers. Publish is
// non-blocking and O(1) amortised: when the queue would exceed capacity,
// the oldest buffer is released (head-of-queue drop), never the newest.
// This preserves recency for preview and detection at the cost of older
// frames. Only one goroutine may call Dequeue at a time; many goroutines
// may call Publish concurrently.
type Ring struct {
	pool     *Pool
	capacity int

	mu       sync.Mutex
	queue    []*Buffer
	closed   bool
	notifyCh chan struct{}

	dropCount atomic.Uint64
}

// NewRing creates a ring of the given capacity backed by pool. pool may
// be nil if the ring is only ever fed buffers rented elsewhere.
func NewRing(pool *Pool, capacity int) *Ring {
	return &Ring{
		pool:     pool,
		capacity: capacity,
		notifyCh: make(chan struct{}),
	}
}

// Rent rents a buffer from the ring's backing pool.
func (r *Ring) Rent(size int) (*Buffer, error) {
	return r.pool.Rent(size)
}

// Publish enqueues buf. If the ring is closed, buf is released
// immediately instead of being queued.
func (r *Ring) Publish(buf *Buffer) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		buf.Release()
		return
	}

	r.queue = append(r.queue, buf)
	for len(r.queue) > r.capacity {
		oldest := r.queue[0]
		r.queue = r.queue[1:]
		oldest.Release()
		r.dropCount.Add(1)
	}
	r.signalLocked()
	r.mu.Unlock()
}

// Dequeue blocks until a buffer is available, the ring is closed
// (returning ErrClosed), or ctx is done (returning ctx.Err()).
func (r *Ring) Dequeue(ctx context.Context) (*Buffer, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			buf := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return buf, nil
		}
		if r.closed {
			r.mu.Unlock()
			return nil, ErrClosed
		}
		wait := r.notifyCh
		r.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryPeek returns the head-of-queue buffer without dequeuing it and
// without any side effects (no blocking primitive is touched). Used for
// diagnostics/preview peeking where consuming the item isn't desired.
func (r *Ring) TryPeek() (*Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, false
	}
	return r.queue[0], true
}

// Close marks the ring closed, releasing any still-queued buffers.
// Subsequent Publish calls release their argument instead of queueing;
// subsequent Dequeue calls return ErrClosed once drained. Idempotent.
func (r *Ring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, buf := range r.queue {
		buf.Release()
	}
	r.queue = nil
	r.signalLocked()
}

// DropCount returns the number of buffers dropped due to capacity
// overflow since the ring was created.
func (r *Ring) DropCount() uint64 {
	return r.dropCount.Load()
}

// signalLocked wakes every current waiter. Must be called with mu held.
func (r *Ring) signalLocked() {
	close(r.notifyCh)
	r.notifyCh = make(chan struct{})
}
