package injector

import (
	"github.com/google/wire"

	"github.com/allworlds/engine/internal/config"
	"github.com/allworlds/engine/internal/core/buffer"
	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/allworlds/engine/internal/core/events/bus"
	"github.com/allworlds/engine/internal/core/observability/log"
	"github.com/allworlds/engine/internal/core/systems/subscription"
	"github.com/allworlds/engine/internal/host"
)

// App is everything the host binary needs to run an engine.
type App struct {
	Config        *config.Config
	Logger        *log.Logger
	Events        bus.EventBus
	Buffers       *buffer.Manager
	Subscriptions *subscription.System
	Engine        *ecs.Engine
	Runner        *host.Runner
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideBuffers,
	ProvideSubscriptions,
	ProvideEngine,
	ProvideRunner,
	wire.Struct(new(App), "*"),
)

// ProvideLogger builds the process logger. The cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := log.New(cfg.LogLevel(), log.Options{Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideBuffers() *buffer.Manager {
	return buffer.NewManager()
}

func ProvideSubscriptions(logger *log.Logger) *subscription.System {
	return subscription.New(logger)
}

// ProvideEngine builds the engine with the built-in systems and runs its first update.
func ProvideEngine(logger *log.Logger, events bus.EventBus, subs *subscription.System) (*ecs.Engine, error) {
	return ecs.New(
		ecs.WithLogger(logger.Named("engine")),
		ecs.WithEventBus(events),
		ecs.WithSystems(subs),
	)
}

func ProvideRunner(cfg *config.Config, engine *ecs.Engine, buffers *buffer.Manager, logger *log.Logger) (*host.Runner, error) {
	return host.NewRunner(engine, cfg.Loop.Interval,
		host.WithBuffers(buffers),
		host.WithMaxFrames(cfg.Loop.MaxFrames),
		host.WithLogger(logger.Named("runner")))
}
