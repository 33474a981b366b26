package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/allworlds/engine/internal/config"
	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/allworlds/engine/internal/core/events/bus"
	"github.com/allworlds/engine/internal/core/observability/log"
	"github.com/allworlds/engine/internal/injector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	demo := flag.Bool("demo", true, "spawn the demo entities")
	report := flag.Duration("report", 5*time.Second, "interval between stats reports")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if *demo {
		if err := spawnDemo(app); err != nil {
			return err
		}
	}

	var last atomic.Pointer[ecs.FrameStats]
	if _, err := app.Events.Subscribe(ecs.EventFrameCompleted, func(ev bus.Event) error {
		if stats, ok := ev.Data().(ecs.FrameStats); ok {
			last.Store(&stats)
		}
		return nil
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return app.Runner.Run(gctx)
	})
	g.Go(func() error {
		return reportStats(gctx, app.Logger, *report, &last)
	})
	return g.Wait()
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
}

func reportStats(ctx context.Context, logger log.Log, every time.Duration, last *atomic.Pointer[ecs.FrameStats]) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := last.Load()
			if stats == nil {
				continue
			}
			logger.Info("engine stats",
				log.Uint64("frame", stats.Frame),
				log.Int("entities", stats.Entities),
				log.Int("changed", stats.Changed),
				log.Duration("elapsed", stats.Elapsed))
		}
	}
}
