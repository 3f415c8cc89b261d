package server

import (
	"context"
	"fmt"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"FinScreen/internal/handler/api"
	"FinScreen/internal/service/marketdata"
	"FinScreen/internal/service/notifier"
	"FinScreen/internal/usecase"
	pkgcache "FinScreen/pkg/cache"
	pkgch "FinScreen/pkg/clickhouse"
	"FinScreen/pkg/config"
	xhttp "FinScreen/pkg/http"
	applogger "FinScreen/pkg/logger"

	"github.com/go-co-op/gocron"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	orchestrator *usecase.Orchestrator
	loader       *marketdata.Loader
	notifier     *notifier.Dispatcher

	// nil when the UI is disabled
	handler    *api.ScreenersHandler
	httpServer *xhttp.Server

	// nil when no data source uses the backend
	redis *pkgcache.RedisCache
	ch    *pkgch.Client

	scheduler *gocron.Scheduler
	finalize  sync.Once
}

// Components groups what the injector builds for the App.
type Components struct {
	Orchestrator *usecase.Orchestrator
	Loader       *marketdata.Loader
	Notifier     *notifier.Dispatcher
	Handler      *api.ScreenersHandler
	HTTPServer   *xhttp.Server
	Redis        *pkgcache.RedisCache
	ClickHouse   *pkgch.Client
}

func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	return &App{
		cfg:          cfg,
		log:          l.Named("app"),
		orchestrator: c.Orchestrator,
		loader:       c.Loader,
		notifier:     c.Notifier,
		handler:      c.Handler,
		httpServer:   c.HTTPServer,
		redis:        c.Redis,
		ch:           c.ClickHouse,
		scheduler:    gocron.NewScheduler(time.UTC),
	}
}

// Run starts the collaborators and runs the scheduling loop until SIGINT or
// SIGTERM. A panic escaping the loop finalizes the App and is re-raised.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("scheduling loop crashed", applogger.Error(fmt.Errorf("%v", r)))
			a.shutdown()
			panic(r)
		}
	}()

	if err := a.startHousekeeping(); err != nil {
		return err
	}
	a.loader.Start(ctx)
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("http server: %w", err)
		}
	}

	a.log.Info("screener engine running",
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("ui", a.httpServer != nil),
	)
	err = a.orchestrator.Run(ctx)
	a.log.Info("shutdown signal received")
	a.shutdown()
	return err
}

// startHousekeeping schedules the periodic memory release.
func (a *App) startHousekeeping() error {
	every := a.cfg.Loop.GCInterval.D()
	if every <= 0 {
		return nil
	}
	_, err := a.scheduler.Every(every).WaitForSchedule().Do(func() {
		debug.FreeOSMemory()
		a.log.Debug("released memory to the OS")
	})
	if err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}
	a.scheduler.StartAsync()
	return nil
}

// shutdown stops every collaborator once, best effort: failures are logged
// and the remaining steps still run.
func (a *App) shutdown() {
	a.finalize.Do(func() {
		a.log.Info("shutting down...")
		a.scheduler.Stop()
		a.loader.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.UI.ShutdownTimeout.D())
		defer cancel()

		if err := a.notifier.Stop(ctx); err != nil {
			a.log.Warn("notifier stop error", applogger.Error(err))
		}
		if a.handler != nil {
			a.handler.Close()
		}
		if a.httpServer != nil {
			if err := a.httpServer.Stop(ctx); err != nil {
				a.log.Error("http shutdown error", applogger.Error(err))
			}
		}
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				a.log.Warn("redis close error", applogger.Error(err))
			}
		}
		if a.ch != nil {
			if err := a.ch.Close(); err != nil {
				a.log.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		a.log.Info("shutdown complete")
	})
}
