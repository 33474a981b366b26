package host

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/allworlds/engine/internal/core/buffer"
	"github.com/allworlds/engine/internal/core/observability/log"
)

var ErrInvalidInterval = errors.New("host: interval must be positive")

// Updater is the part of ecs.Engine the runner drives.
type Updater interface {
	Update() error
	Frame() uint64
}

// Runner ticks an engine at a fixed interval. A failed update is logged and
// the loop goes on with the next tick.
type Runner struct {
	engine    Updater
	buffers   *buffer.Manager
	logger    log.Log
	interval  time.Duration
	maxFrames uint64

	ticks    atomic.Uint64
	failures atomic.Uint64
}

type Option func(*Runner)

func WithLogger(logger log.Log) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithBuffers swaps m after every successful update.
func WithBuffers(m *buffer.Manager) Option {
	return func(r *Runner) { r.buffers = m }
}

// WithMaxFrames stops the runner after n ticks. Zero means no limit.
func WithMaxFrames(n uint64) Option {
	return func(r *Runner) { r.maxFrames = n }
}

func NewRunner(engine Updater, interval time.Duration, opts ...Option) (*Runner, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	r := &Runner{
		engine:   engine,
		interval: interval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Provide().Named("runner")
	}
	return r, nil
}

// Run blocks until ctx is done or the frame limit is reached. Both are a
// normal stop and return nil.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner started",
		log.Duration("interval", r.interval),
		log.Uint64("max_frames", r.maxFrames))
	defer func() {
		r.logger.Info("runner stopped",
			log.Uint64("ticks", r.ticks.Load()),
			log.Uint64("failures", r.failures.Load()))
	}()

	for {
		if r.maxFrames > 0 && r.ticks.Load() >= r.maxFrames {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Step()
		}
	}
}

// Step runs a single tick on the caller's goroutine. It reports whether the update succeeded.
func (r *Runner) Step() bool {
	r.ticks.Add(1)
	if err := r.engine.Update(); err != nil {
		r.failures.Add(1)
		r.logger.Error("update failed",
			log.Uint64("frame", r.engine.Frame()),
			log.Error(err))
		return false
	}
	if r.buffers != nil {
		r.buffers.SwapAll()
	}
	return true
}

// Ticks counts attempted updates, failed ones included.
func (r *Runner) Ticks() uint64 {
	return r.ticks.Load()
}

func (r *Runner) Failures() uint64 {
	return r.failures.Load()
}
