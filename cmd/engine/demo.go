package main

import (
	"fmt"

	"github.com/allworlds/engine/internal/core/buffer"
	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/allworlds/engine/internal/core/observability/log"
	"github.com/allworlds/engine/internal/core/systems/subscription"
	"github.com/allworlds/engine/internal/injector"
)

type health struct {
	ecs.Unique
	Current, Max int
}

// regenSystem heals every mortal entity by rate per frame and counts the
// total healed in a double buffer.
type regenSystem struct {
	ecs.Base

	rate   int
	healed *buffer.Buffer[int]
}

var _ ecs.System = (*regenSystem)(nil)

func (*regenSystem) RequiredComponents() []ecs.Kind {
	return []ecs.Kind{ecs.KindOf[health]()}
}

func (s *regenSystem) OnUpdate() error {
	total := s.healed.Current()
	for _, e := range s.Registered() {
		err := ecs.Update(e, func(h health) health {
			gain := min(s.rate, h.Max-h.Current)
			h.Current += gain
			total += gain
			return h
		})
		if err != nil {
			return err
		}
	}
	s.healed.SetNext(total)
	return nil
}

func spawnDemo(app *injector.App) error {
	healed, err := buffer.New(app.Buffers, 0)
	if err != nil {
		return err
	}
	if err := app.Engine.AddSystem(&regenSystem{rate: 1, healed: healed}); err != nil {
		return err
	}

	logger := app.Logger.Named("demo")
	watch, _ := subscription.SubscribeTo[health](func(e *ecs.Entity, prev, next ecs.Component) {
		h, ok := next.(health)
		if !ok {
			return
		}
		fields := []log.Field{
			log.String("entity", e.ID()),
			log.Int("current", h.Current),
			log.Int("max", h.Max),
		}
		// the journal is a chain of string nodes, one per change
		if j, err := ecs.Get[*ecs.Queue[string]](e); err == nil {
			fields = append(fields, log.Int("journal", j.Len()))
		}
		logger.Info("health changed", fields...)
		entry := fmt.Sprintf("health %d/%d", h.Current, h.Max)
		if err := e.QueueAdd(ecs.QueueOf(entry)); err != nil {
			logger.Warn("journal entry dropped", log.Error(err))
		}
	})

	player, err := ecs.NewBuilder().
		With(health{Current: 3, Max: 10}).
		With(watch).
		With(ecs.QueueOf("spawned")).
		Build()
	if err != nil {
		return err
	}
	dummy, err := ecs.NewEntity(health{Current: 10, Max: 10})
	if err != nil {
		return err
	}
	return app.Engine.QueueCreateMany(player, dummy)
}
