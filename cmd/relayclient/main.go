// Command relayclient is the trivial connecting client shipped alongside
// broadcastd for end-to-end use: it connects, prints what it receives, and
// sends stdin lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"broadcastd/internal/chatclient"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	flag.Parse()

	c, err := chatclient.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial error:", err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Println("Connected to server. You can start typing.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Receive(ctx, os.Stdout)

	if err := c.RunREPL(ctx, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
