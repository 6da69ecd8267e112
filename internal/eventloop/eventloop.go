// Package eventloop implements the readiness-based I/O loop: it owns the
// listening socket and every accepted connection, translates ingress bytes
// into envelopes pushed onto the ring, and maintains the client registry.
//
// The readiness mechanism itself (epoll on Linux, kqueue on BSD/Darwin) is
// provided by github.com/tidwall/evio rather than hand-rolled syscalls —
// evio's Events{Opened, Data, Closed} callbacks map directly onto the
// accept/read/disconnect responsibilities an epoll-based server needs, and
// its readiness notifications are level-triggered: a connection with
// unread bytes keeps re-firing Data until they're drained, so a single read
// per callback never stalls a connection.
package eventloop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/evio"
	"go.uber.org/zap"

	"broadcastd/internal/envelope"
	"broadcastd/internal/registry"
	"broadcastd/internal/ring"
	"broadcastd/pkg/types"
)

// sink adapts an evio connection to registry.Sink. evio only allows writes
// to be returned as `out` from within an event callback on that
// connection's own loop goroutine, so cross-goroutine sends (the
// broadcaster fanning out into this event loop) are implemented by
// buffering pending bytes here and calling Wake, which causes evio to fire
// a Data callback with the buffer attached as `out`.
type sink struct {
	mu      sync.Mutex
	pending []byte
	conn    evio.Conn
}

func (s *sink) Send(payload []byte) error {
	s.mu.Lock()
	s.pending = append(s.pending, payload...)
	s.mu.Unlock()
	s.conn.Wake()
	return nil
}

func (s *sink) drain() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := s.pending
	s.pending = nil
	return out
}

// connState is stashed in every evio.Conn via SetContext so Data/Closed can
// recover the handle and its sink without a second lookup.
type connState struct {
	handle types.Handle
	sink   *sink
}

// EventLoop is the event-driven core. One EventLoop owns one listening
// socket, the client Registry, and the Ring it shares with a Broadcaster
// running on a separate goroutine.
type EventLoop struct {
	cfg     types.Config
	reg     *registry.Registry
	ring    *ring.Ring
	alloc   types.HandleAllocator
	log     *zap.SugaredLogger
	onReady func(addr string)
}

// New builds an EventLoop over the given Registry and Ring. The Broadcaster
// that drains ring is started separately by the caller (see cmd/broadcastd):
// the two run as independent concurrent workers sharing only the ring and
// the registry.
func New(cfg types.Config, reg *registry.Registry, r *ring.Ring, log *zap.SugaredLogger) *EventLoop {
	return &EventLoop{cfg: cfg, reg: reg, ring: r, alloc: types.HandleAllocator{}, log: log}
}

// OnReady registers a callback invoked once the listening socket is bound,
// with the actual bound address. Tests use this to discover the ephemeral
// port when cfg.TCPAddr asks for port 0.
func (el *EventLoop) OnReady(f func(addr string)) {
	el.onReady = f
}

// Run blocks until ctx is cancelled or evio returns a fatal setup error
// (socket/bind/listen failures abort startup; evio.Serve itself returns a
// non-nil error in that case and Run propagates it unchanged).
func (el *EventLoop) Run(ctx context.Context) error {
	var events evio.Events
	events.NumLoops = 1 // single event-loop thread owns every connection

	events.Serving = func(srv evio.Server) evio.Action {
		el.log.Infof("Listening on port %s", el.cfg.TCPAddr)
		if el.onReady != nil && len(srv.Addrs) > 0 {
			el.onReady(srv.Addrs[0].String())
		}
		return evio.None
	}

	events.Opened = func(c evio.Conn) (out []byte, opts evio.Options, action evio.Action) {
		h := el.alloc.Next()
		sk := &sink{conn: c}
		c.SetContext(&connState{handle: h, sink: sk})
		el.reg.Insert(h, sk, c.RemoteAddr().String())
		el.log.Infof("New connection: %s", c.RemoteAddr())
		return nil, evio.Options{}, evio.None
	}

	events.Closed = func(c evio.Conn, err error) evio.Action {
		st, ok := c.Context().(*connState)
		if !ok {
			return evio.None
		}
		el.reg.Remove(st.handle)
		el.log.Infof("Client disconnected: %d", st.handle)
		return evio.None
	}

	events.Data = func(c evio.Conn, in []byte) (out []byte, action evio.Action) {
		st, ok := c.Context().(*connState)
		if !ok {
			return nil, evio.None
		}

		// A positive read: chunk into at-most-BufferSize envelopes,
		// matching a fixed-size read-buffer-per-read granularity, and
		// spin-push each one onto the ring (backpressure: a full ring
		// means the broadcaster is behind, so the loop spins rather
		// than buffering further).
		for len(in) > 0 {
			n := el.cfg.BufferSize
			if n > len(in) {
				n = len(in)
			}
			env, err := envelope.New(st.handle, in[:n])
			if err != nil {
				el.log.Warnw("dropping unenvelopable chunk", "handle", st.handle, "error", err)
			} else {
				el.ring.SpinPush(env)
			}
			in = in[n:]
		}

		// Always flush whatever the broadcaster queued for this
		// connection since the last event; this is the write half of
		// the Wake-triggered push described on sink above.
		out = st.sink.drain()
		return out, evio.None
	}

	events.Tick = func() (time.Duration, evio.Action) {
		select {
		case <-ctx.Done():
			return 0, evio.Shutdown
		default:
			return 200 * time.Millisecond, evio.None
		}
	}

	return evio.Serve(events, fmt.Sprintf("tcp://%s", el.cfg.TCPAddr))
}
