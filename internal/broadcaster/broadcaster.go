// Package broadcaster implements the background worker that drains the
// ring and fans each envelope out to every other registered peer and to the
// multicast egress socket.
package broadcaster

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"broadcastd/internal/envelope"
	"broadcastd/internal/registry"
	"broadcastd/internal/ring"
	"broadcastd/pkg/types"
)

// Multicaster is the subset of mcast.Egress the broadcaster needs; an
// interface here keeps this package testable without a real socket.
type Multicaster interface {
	Send(payload []byte) error
}

// Broadcaster pops envelopes from a Ring in a tight loop, fans each one out
// through a Registry, and mirrors it to a Multicaster. It runs for the
// process lifetime; Run only returns on context cancellation.
type Broadcaster struct {
	ring   *ring.Ring
	reg    *registry.Registry
	mcast  Multicaster
	log    *zap.SugaredLogger
	idle   time.Duration
	paused atomic.Bool
}

// New builds a Broadcaster. idle is the bounded pause taken when the ring is
// empty (a few microseconds is typical); it never blocks on a condition
// variable.
func New(r *ring.Ring, reg *registry.Registry, m Multicaster, log *zap.SugaredLogger, idle time.Duration) *Broadcaster {
	return &Broadcaster{ring: r, reg: reg, mcast: m, log: log, idle: idle}
}

// Pause stops the broadcaster from popping the ring without stopping its
// goroutine, simulating a slow consumer for backpressure tests. Resume
// undoes it.
func (b *Broadcaster) Pause()  { b.paused.Store(true) }
func (b *Broadcaster) Resume() { b.paused.Store(false) }

// Run drains the ring until ctx is cancelled. One iteration: pop an
// envelope, fan it out to every peer but the originator under the registry
// lock, then mirror it to multicast. Fan-out and multicast sends are both
// best-effort: their errors are logged, never propagated.
func (b *Broadcaster) Run(ctx context.Context) error {
	var env envelope.Envelope
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if b.paused.Load() {
			time.Sleep(b.idle)
			continue
		}

		if !b.ring.TryPop(&env) {
			time.Sleep(b.idle)
			continue
		}

		payload := env.Bytes()
		b.reg.FanOut(env.Origin, payload, func(h types.Handle, err error) {
			if b.log != nil {
				b.log.Warnw("fan-out send failed", "handle", h, "error", err)
			}
		})

		if err := b.mcast.Send(payload); err != nil {
			if b.log != nil {
				b.log.Warnw("multicast send failed", "error", err)
			}
		}
	}
}
