// Package marketdata keeps the latest snapshot of every stats source fresh in
// the background and hands them to the scheduling loop.
package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"FinScreen/internal/domain/models"
	drepo "FinScreen/internal/domain/repository"
	applogger "FinScreen/pkg/logger"
)

// Source pairs a stats source with its reload period.
type Source struct {
	drepo.StatsSource
	Refresh time.Duration
}

// Loader implements repository.StatsFeed. Each source is reloaded by its own
// goroutine; snapshots are swapped atomically and never mutated afterwards.
type Loader struct {
	sources []Source
	snaps   map[string]*atomic.Pointer[models.SourceStats]
	metrics drepo.Metrics
	l       *applogger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLoader(sources []Source, metrics drepo.Metrics, l *applogger.Logger) *Loader {
	snaps := make(map[string]*atomic.Pointer[models.SourceStats], len(sources))
	for _, s := range sources {
		snaps[s.Name()] = &atomic.Pointer[models.SourceStats]{}
	}
	return &Loader{
		sources: sources,
		snaps:   snaps,
		metrics: metrics,
		l:       l.Named("marketdata"),
	}
}

// Start launches one reload loop per source. The first load happens immediately.
func (ld *Loader) Start(ctx context.Context) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if ld.cancel != nil {
		return
	}
	ctx, ld.cancel = context.WithCancel(ctx)
	for _, s := range ld.sources {
		ld.wg.Add(1)
		go ld.run(ctx, s)
	}
	ld.l.Info("stats loaders started", applogger.Int("sources", len(ld.sources)))
}

// Stop cancels the reload loops and waits for in-flight loads.
func (ld *Loader) Stop() {
	ld.mu.Lock()
	cancel := ld.cancel
	ld.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	ld.wg.Wait()
	ld.l.Info("stats loaders stopped")
}

func (ld *Loader) run(ctx context.Context, s Source) {
	defer ld.wg.Done()

	ld.load(ctx, s)
	ticker := time.NewTicker(s.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ld.load(ctx, s)
		}
	}
}

// load replaces the snapshot of s. A failed load keeps the previous one.
func (ld *Loader) load(ctx context.Context, s Source) {
	start := time.Now()
	stats, err := s.Load(ctx)
	ld.metrics.RecordSourceLoad(s.Name(), err == nil, time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == nil {
			ld.l.Warn("stats load failed",
				applogger.String("source", s.Name()),
				applogger.Error(err),
			)
		}
		return
	}
	ld.snaps[s.Name()].Store(stats)
	ld.l.Debug("stats loaded",
		applogger.String("source", s.Name()),
		applogger.Int("symbols", stats.Len()),
		applogger.Bool("pending", stats.Pending),
	)
}

// Collect copies the latest snapshot of every loaded source into the map.
func (ld *Loader) Collect(into models.TickerStats) {
	for name, p := range ld.snaps {
		if s := p.Load(); s != nil {
			into[name] = s
		}
	}
}
