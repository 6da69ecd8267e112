// Package chatclient is the trivial connecting client: it opens a TCP
// connection, prints every byte chunk it receives in the background, and
// sends each input line verbatim (no trailing newline) as one write.
package chatclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
)

// Client holds one connection to a broadcast relay server.
type Client struct {
	conn net.Conn
}

// Dial connects to addr (host:port).
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("chatclient: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Receive runs a background reader that prints "Received: <bytes>" for
// every chunk read, until the connection closes or ctx is cancelled. It
// returns once reading stops.
func (c *Client) Receive(ctx context.Context, out io.Writer) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			fmt.Fprintf(out, "Received: %s\n", buf[:n])
		}
		if err != nil {
			fmt.Fprintln(out, "Server disconnected.")
			return
		}
	}
}

// Send writes line verbatim (the caller is responsible for stripping any
// trailing newline) as a single write.
func (c *Client) Send(line string) error {
	if line == "" {
		return nil
	}
	_, err := c.conn.Write([]byte(line))
	return err
}

// RunREPL scans lines from in, sending each non-empty one, until in is
// exhausted or ctx is cancelled.
func (c *Client) RunREPL(ctx context.Context, in io.Reader) error {
	s := bufio.NewScanner(in)
	for s.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.Send(s.Text()); err != nil {
			return err
		}
	}
	return s.Err()
}
