package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScreen/internal/domain/models"
	"FinScreen/internal/service/marketdata"
	"FinScreen/internal/service/notifier"
	"FinScreen/internal/usecase"
	"FinScreen/pkg/config"
	"FinScreen/pkg/logger"
	"FinScreen/pkg/metrics"
)

type groupsFunc func() models.TickerGroups

func (f groupsFunc) Groups(context.Context) models.TickerGroups { return f() }

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Loop:        config.LoopConfig{Tick: config.Duration(5 * time.Millisecond), GCInterval: config.Duration(time.Hour)},
		UI:          config.UIConfig{ShutdownTimeout: config.Duration(time.Second)},
	}
}

func newTestApp(groups usecase.GroupSource) *App {
	cfg := testConfig()
	l := logger.Nop()
	loader := marketdata.NewLoader(nil, metrics.Nop{}, l)
	orch := usecase.NewOrchestrator(nil, groups, loader, usecase.NewResultStore(), metrics.Nop{}, l,
		usecase.WithTick(cfg.Loop.Tick.D()))
	disp := notifier.NewDispatcher([]notifier.Channel{notifier.NewLogChannel(l)}, metrics.Nop{}, l)
	return New(cfg, l, Components{Orchestrator: orch, Loader: loader, Notifier: disp})
}

func TestRunReturnsOnCancel(t *testing.T) {
	app := newTestApp(groupsFunc(models.NewTickerGroups))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
	assert.False(t, app.scheduler.IsRunning())
	assert.NotPanics(t, app.shutdown, "shutdown runs once")
}

func TestRunRepanicsAfterFinalize(t *testing.T) {
	app := newTestApp(groupsFunc(func() models.TickerGroups { panic("groups exploded") }))

	assert.PanicsWithValue(t, "groups exploded", func() { _ = app.run(context.Background()) })
	assert.False(t, app.scheduler.IsRunning())
}
