package framepool

import "errors"

// ErrClosed is returned by Dequeue when the ring has been closed and no
// further items will ever be published.
var ErrClosed = errors.New("framepool: ring closed")

// ErrPoolDisposed is returned by Rent once a pool has been disposed.
var ErrPoolDisposed = errors.New("framepool: pool disposed")
