package types

import "sync/atomic"

// Handle is an opaque identifier for an open byte-stream connection. It is
// unique among currently-open connections; values are reused only after the
// original connection has closed (sequential allocation never wraps in
// practice, so no reuse actually occurs, but nothing in the design depends
// on that).
type Handle uint64

// HandleAllocator mints Handles for accepted connections. The zero value is
// ready to use.
type HandleAllocator struct {
	next uint64
}

// Next returns a Handle distinct from every value previously returned by
// this allocator.
func (a *HandleAllocator) Next() Handle {
	return Handle(atomic.AddUint64(&a.next, 1))
}
