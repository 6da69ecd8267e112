// Command broadcastd is the launcher: it selects between the event-driven
// core and the thread-per-connection core based on a command-line tag and
// otherwise just wires up argument parsing, logging, and process lifecycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"broadcastd/internal/broadcaster"
	"broadcastd/internal/eventloop"
	"broadcastd/internal/mcast"
	"broadcastd/internal/registry"
	"broadcastd/internal/ring"
	"broadcastd/internal/threadcore"
	"broadcastd/pkg/types"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <epoll|thread>\n", os.Args[0])
}

func main() {
	if len(os.Args) != 2 {
		usage()
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := types.DefaultConfig()

	switch os.Args[1] {
	case "epoll":
		err = runEventDriven(ctx, cfg, sugar)
	case "thread":
		err = runThreadPerConnection(ctx, cfg, sugar)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		sugar.Fatalf("server error: %v", err)
	}
}

// runEventDriven wires the Ring, Registry, multicast Egress, EventLoop and
// Broadcaster together: two concurrent goroutines sharing the ring
// (lock-free SPSC) and the registry (mutex-guarded).
func runEventDriven(ctx context.Context, cfg types.Config, log *zap.SugaredLogger) error {
	mc, err := mcast.Open(cfg.MulticastGroup, cfg.MulticastPort, cfg.MulticastTTL)
	if err != nil {
		return fmt.Errorf("multicast egress: %w", err)
	}
	defer mc.Close()

	reg := registry.New()
	r := ring.New(cfg.RingCapacity)

	el := eventloop.New(cfg, reg, r, log)
	bc := broadcaster.New(r, reg, mc, log, cfg.BroadcasterIdlePause)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bc.Run(gctx) })
	g.Go(func() error { return el.Run(gctx) })
	return g.Wait()
}

// runThreadPerConnection wires the simpler thread-per-connection core.
func runThreadPerConnection(ctx context.Context, cfg types.Config, log *zap.SugaredLogger) error {
	reg := registry.New()
	core := threadcore.New(cfg, reg, log)
	return core.Run(ctx)
}
