// Package framepool provides a fixed-capacity, slot-recycling byte buffer
// pool and a bounded ring buffer built on top of it. Producers (capture
// callbacks) never block on slow consumers: renting a buffer never waits,
// and publishing to a ring drops the oldest queued item rather than the
// producer stalling.
package framepool

import "sync"

// Buffer is a pooled byte region with a single exclusive holder at a
// time. Release returns it to its owning Pool; a Buffer must not be used
// after Release.
type Buffer struct {
	pool *Pool
	data []byte
	size int
}

// Bytes returns the buffer's contents, sized to the amount actually
// requested at Rent time (capacity may be larger).
func (b *Buffer) Bytes() []byte {
	return b.data[:b.size]
}

// Len returns the requested size of the buffer.
func (b *Buffer) Len() int {
	return b.size
}

// Release returns the buffer to its pool. Safe to call at most once.
func (b *Buffer) Release() {
	if b == nil || b.pool == nil {
		return
	}
	b.pool.release(b)
}

// Clone rents a fresh buffer from the same pool and copies this buffer's
// contents into it. Use when a consumer needs to retain data beyond a
// callback or ring-dequeue lifetime without holding the original slot.
func (b *Buffer) Clone() (*Buffer, error) {
	out, err := b.pool.Rent(b.size)
	if err != nil {
		return nil, err
	}
	copy(out.data, b.data[:b.size])
	return out, nil
}

// Pool is a fixed-capacity pool of byte slots. Slots are created lazily
// up to Capacity and reused thereafter; a slot is reallocated only if a
// larger frame size is requested than it currently holds. Rent beyond
// Capacity still succeeds (the producer always wins) but the extra
// buffer is not retained in the free list on release.
type Pool struct {
	mu            sync.Mutex
	free          []*Buffer
	capacity      int
	maxFrameBytes int
	allocated     int
	disposed      bool
}

// NewPool creates a pool of up to capacity slots, each initially sized to
// maxFrameBytes. maxFrameBytes is a sizing hint, not a hard cap: Rent
// grows a slot (or allocates a new one) if a larger size is requested.
func NewPool(capacity, maxFrameBytes int) *Pool {
	return &Pool{
		capacity:      capacity,
		maxFrameBytes: maxFrameBytes,
	}
}

// Rent returns a buffer with capacity for at least size bytes, sized to
// exactly size. It never blocks: if no free slot is large enough, a new
// one is allocated.
func (p *Pool) Rent(size int) (*Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return nil, ErrPoolDisposed
	}

	// Look for a free slot with enough capacity, preferring an exact
	// fit search from the tail (most recently released).
	for i := len(p.free) - 1; i >= 0; i-- {
		if cap(p.free[i].data) >= size {
			buf := p.free[i]
			p.free = append(p.free[:i], p.free[i+1:]...)
			buf.size = size
			return buf, nil
		}
	}

	// No free slot big enough: replace the smallest free slot if one
	// exists, else allocate a brand new one. Only a brand new slot counts
	// against allocated; replacing a free slot leaves the count unchanged.
	allocSize := size
	if p.maxFrameBytes > allocSize {
		allocSize = p.maxFrameBytes
	}
	if len(p.free) > 0 {
		// Replace the smallest stale slot rather than growing unbounded.
		idx := 0
		for i := 1; i < len(p.free); i++ {
			if cap(p.free[i].data) < cap(p.free[idx].data) {
				idx = i
			}
		}
		p.free = append(p.free[:idx], p.free[idx+1:]...)
	} else {
		p.allocated++
	}

	buf := &Buffer{pool: p, data: make([]byte, allocSize), size: size}
	return buf, nil
}

// release returns buf to the free list unless the pool has been
// disposed, in which case the buffer is simply dropped for the GC.
func (p *Pool) release(buf *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	if len(p.free) >= p.capacity {
		return
	}
	p.free = append(p.free, buf)
}

// Dispose marks the pool disposed. Outstanding buffers may still be
// released (and are discarded rather than recycled); further Rent calls
// fail with ErrPoolDisposed.
func (p *Pool) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
	p.free = nil
}

// Allocated returns the number of slots the pool has created so far
// (bounded by Capacity in steady-state rent/release use); replacing a
// free slot with a larger buffer does not add to it.
func (p *Pool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}
