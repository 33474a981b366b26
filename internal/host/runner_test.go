package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/allworlds/engine/internal/core/buffer"
	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/allworlds/engine/internal/core/observability/log"
)

type flakyEngine struct {
	frame  uint64
	calls  int
	failOn map[int]bool
}

func (f *flakyEngine) Update() error {
	f.calls++
	if f.failOn[f.calls] {
		return errors.New("boom")
	}
	f.frame++
	return nil
}

func (f *flakyEngine) Frame() uint64 { return f.frame }

func TestNewRunnerRejectsInterval(t *testing.T) {
	_, err := NewRunner(&flakyEngine{}, 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRunnerStopsAtMaxFrames(t *testing.T) {
	engine := &flakyEngine{}
	r, err := NewRunner(engine, time.Millisecond, WithMaxFrames(5), WithLogger(log.NewNop()))
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(5), r.Ticks())
	assert.Equal(t, 5, engine.calls)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	r, err := NewRunner(&flakyEngine{}, time.Hour, WithLogger(log.NewNop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Run(ctx))
	assert.Zero(t, r.Ticks())
}

func TestRunnerLogsFailuresAndContinues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := &flakyEngine{failOn: map[int]bool{2: true}}
	r, err := NewRunner(engine, time.Millisecond,
		WithMaxFrames(3),
		WithLogger(log.NewWithCore(core)))
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(3), r.Ticks())
	assert.Equal(t, uint64(1), r.Failures())
	assert.Equal(t, uint64(2), engine.Frame())

	failed := logs.FilterMessage("update failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "boom", failed[0].ContextMap()["error"])
}

func TestStepSwapsBuffersOnSuccess(t *testing.T) {
	m := buffer.NewManager()
	b, err := buffer.New(m, 1)
	require.NoError(t, err)

	engine := &flakyEngine{failOn: map[int]bool{1: true}}
	r, err := NewRunner(engine, time.Millisecond, WithBuffers(m), WithLogger(log.NewNop()))
	require.NoError(t, err)

	b.SetNext(2)
	assert.False(t, r.Step())
	assert.Equal(t, 1, b.Current(), "failed frame does not swap")
	assert.True(t, r.Step())
	assert.Equal(t, 2, b.Current())
}

func TestRunnerDrivesEngine(t *testing.T) {
	en := ecs.NewEngine(ecs.WithLogger(log.NewNop()))
	e, err := ecs.NewEntity()
	require.NoError(t, err)
	require.NoError(t, en.QueueCreate(e))

	r, err := NewRunner(en, time.Millisecond, WithMaxFrames(2), WithLogger(log.NewNop()))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.True(t, en.Has(e))
	assert.Equal(t, uint64(2), en.Frame())
}
