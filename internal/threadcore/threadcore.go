// Package threadcore implements the simpler thread-per-connection server
// variant: one goroutine per accepted connection, fan-out performed inline
// on that goroutine while holding the registry mutex. No ring, no
// multicast — a client's bytes are written directly to every other
// connected peer from the reader goroutine that read them.
package threadcore

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"broadcastd/internal/registry"
	"broadcastd/pkg/types"
)

// tcpSink adapts a net.Conn to registry.Sink for this core.
type tcpSink struct {
	conn net.Conn
}

func (s *tcpSink) Send(payload []byte) error {
	_, err := s.conn.Write(payload)
	return err
}

func (s *tcpSink) Close() error { return s.conn.Close() }

// Core is the thread-per-connection server.
type Core struct {
	cfg   types.Config
	reg   *registry.Registry
	alloc types.HandleAllocator
	log   *zap.SugaredLogger
}

// New builds a Core sharing reg with nothing else; this core is entirely
// self-contained (no ring, no broadcaster goroutine).
func New(cfg types.Config, reg *registry.Registry, log *zap.SugaredLogger) *Core {
	return &Core{cfg: cfg, reg: reg, log: log}
}

// Run listens on cfg.TCPAddr and accepts connections until ctx is
// cancelled. Listen/bind failures are returned to the caller as fatal
// startup errors, the same classification the event-driven core uses.
func (c *Core) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.cfg.TCPAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	c.log.Infof("Listening on port %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warnw("accept error", "error", err)
			continue
		}

		if c.reg.Size() >= c.cfg.MaxClients {
			c.log.Warnw("max clients reached, rejecting connection", "remote", conn.RemoteAddr())
			_ = conn.Close()
			continue
		}

		h := c.alloc.Next()
		c.reg.Insert(h, &tcpSink{conn: conn}, conn.RemoteAddr().String())
		c.log.Infof("New connection: %s", conn.RemoteAddr())
		go c.handleClient(h, conn)
	}
}

// handleClient reads from conn until EOF/error, fanning each chunk out to
// every other registered peer inline, on this same goroutine.
func (c *Core) handleClient(h types.Handle, conn net.Conn) {
	buf := make([]byte, c.cfg.BufferSize)
	for {
		n, err := conn.Read(buf)
		if n <= 0 || err != nil {
			break
		}
		c.reg.FanOut(h, buf[:n], func(peer types.Handle, sendErr error) {
			if sendErr != nil && !errors.Is(sendErr, net.ErrClosed) {
				c.log.Warnw("send to peer failed", "peer", peer, "error", sendErr)
			}
		})
	}
	c.log.Infof("Client disconnected: %d", h)
	c.reg.RemoveAndClose(h)
}
