// Package ring implements the bounded single-producer/single-consumer queue
// that sits between the event loop and the broadcaster. It never blocks and
// never allocates on the hot path: TryPush and TryPop are plain index
// arithmetic plus an atomic load/store pair.
package ring

import (
	"sync/atomic"

	"broadcastd/internal/envelope"
)

// cacheLinePad keeps head and tail on distinct cache lines so the producer
// spinning on head and the consumer spinning on tail don't false-share.
type cacheLinePad [64]byte

// Ring is a fixed-capacity circular buffer of envelopes. Correctness
// requires exactly one goroutine ever calling TryPush and exactly one
// (possibly different) goroutine ever calling TryPop; a second producer or
// consumer silently breaks the head/tail protocol below.
type Ring struct {
	capacity uint64

	_    cacheLinePad
	head uint64 // consumer-owned: next slot to pop
	_    cacheLinePad
	tail uint64 // producer-owned: next slot to push
	_    cacheLinePad

	buf []envelope.Envelope
}

// New allocates a ring holding at most capacity-1 envelopes at once (one
// slot is always kept empty to distinguish full from empty).
func New(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	return &Ring{
		capacity: uint64(capacity),
		buf:      make([]envelope.Envelope, capacity),
	}
}

// Cap reports the ring's slot count (capacity-1 usable entries).
func (r *Ring) Cap() int { return int(r.capacity) }

// TryPush copies e into the ring and makes it visible to the consumer. It
// returns false without blocking if the ring is full.
func (r *Ring) TryPush(e envelope.Envelope) bool {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head) // acquire: see the consumer's latest pop
	next := (tail + 1) % r.capacity
	if next == head {
		return false
	}
	r.buf[tail] = e
	atomic.StoreUint64(&r.tail, next) // release: publish the payload write above
	return true
}

// SpinPush retries TryPush until it succeeds. This is the event loop's
// intentional backpressure mechanism: a full ring means the broadcaster is
// behind, and the producer slows to match rather than buffering further.
func (r *Ring) SpinPush(e envelope.Envelope) {
	for !r.TryPush(e) {
	}
}

// TryPop removes the oldest envelope into out. It returns false without
// blocking if the ring is empty.
func (r *Ring) TryPop(out *envelope.Envelope) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail) // acquire: see the producer's latest push
	if head == tail {
		return false
	}
	*out = r.buf[head]
	atomic.StoreUint64(&r.head, (head+1)%r.capacity) // release
	return true
}
