package usecase

import (
	"context"
	"fmt"
	"time"

	"FinScreen/internal/domain/models"
	drepo "FinScreen/internal/domain/repository"
	"FinScreen/internal/screener"
	"FinScreen/pkg/logger"
)

// GroupSource resolves ticker groups at the start of a tick.
type GroupSource interface {
	Groups(ctx context.Context) models.TickerGroups
}

// slot is the schedule state the orchestrator keeps for one screener.
type slot struct {
	s          screener.Screener
	lastUpdate time.Time
	fresh      bool
	backlog    bool
	matches    int
	emptyGroup bool
}

func (sl *slot) due(now time.Time) bool {
	return sl.lastUpdate.IsZero() || !now.Before(sl.lastUpdate.Add(sl.s.Interval()))
}

// Orchestrator runs the fixed-tick update/screen loop. Every screener, the
// stats map and the group cache are touched only from the goroutine calling Run.
// A screener that hangs stalls the whole tick; there is no per-call timeout.
type Orchestrator struct {
	slots   []*slot
	groups  GroupSource
	feed    drepo.StatsFeed
	stats   models.TickerStats
	store   *ResultStore
	metrics drepo.Metrics
	log     *logger.Logger

	tick  time.Duration
	clock func() time.Time
}

type OrchestratorOption func(*Orchestrator)

// WithTick sets the nominal loop period.
func WithTick(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.tick = d }
}

func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

func NewOrchestrator(
	screeners []screener.Screener,
	groups GroupSource,
	feed drepo.StatsFeed,
	store *ResultStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		groups:  groups,
		feed:    feed,
		stats:   models.TickerStats{},
		store:   store,
		metrics: metrics,
		log:     log.Named("orchestrator"),
		tick:    time.Second,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, s := range screeners {
		o.slots = append(o.slots, &slot{s: s})
		store.Publish(s.Name(), s.Screened())
	}
	store.PublishStates(o.States())
	return o
}

// Run ticks until ctx is cancelled. A tick in progress always completes.
// Panics escaping a tick are not recovered here.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("scheduling loop started",
		logger.Int("screeners", len(o.slots)),
		logger.Duration("tick", o.tick),
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			o.log.Info("scheduling loop stopped")
			return nil
		case <-timer.C:
		}

		start := time.Now()
		o.Tick(ctx)
		elapsed := time.Since(start)
		o.metrics.RecordTick(elapsed.Seconds())
		timer.Reset(sleepFor(o.tick, elapsed))
	}
}

// sleepFor returns the rest of the tick period, never negative.
func sleepFor(period, elapsed time.Duration) time.Duration {
	if d := period - elapsed; d > 0 {
		return d
	}
	return 0
}

// Tick runs one update pass followed by one screen pass.
func (o *Orchestrator) Tick(ctx context.Context) {
	now := o.clock()
	groups := o.groups.Groups(ctx)
	if o.feed != nil {
		o.feed.Collect(o.stats)
	}

	for _, sl := range o.slots {
		if !sl.due(now) {
			continue
		}
		symbols, ok := o.symbols(sl, groups)
		if !ok {
			continue
		}
		updated := o.update(sl, symbols)
		o.metrics.RecordUpdate(sl.s.Name(), updated)
		o.metrics.RecordBacklog(sl.s.Name(), !updated)
		sl.backlog = !updated
		if updated {
			sl.lastUpdate = now
			sl.fresh = true
		}
	}

	for _, sl := range o.slots {
		if !sl.fresh {
			continue
		}
		o.screen(sl, groups.Symbols(sl.s.TickerKind()))
		sl.fresh = false
	}

	o.store.PublishStates(o.States())
}

func (o *Orchestrator) symbols(sl *slot, groups models.TickerGroups) ([]string, bool) {
	symbols := groups.Symbols(sl.s.TickerKind())
	if len(symbols) == 0 {
		if !sl.emptyGroup {
			o.log.Error("empty ticker group, screener skipped",
				logger.String("screener", sl.s.Name()),
				logger.String("ticker_kind", string(sl.s.TickerKind())),
			)
			sl.emptyGroup = true
		}
		return nil, false
	}
	sl.emptyGroup = false
	return symbols, true
}

func (o *Orchestrator) update(sl *slot, symbols []string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("screener update panicked",
				logger.String("screener", sl.s.Name()),
				logger.Error(fmt.Errorf("%v", r)),
			)
			ok = false
		}
	}()
	return sl.s.Update(symbols, o.stats)
}

// screen runs the filter and publishes its output. A panic inside the
// screener is logged and the previous output stays published.
func (o *Orchestrator) screen(sl *slot, symbols []string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("screener screen panicked",
				logger.String("screener", sl.s.Name()),
				logger.Error(fmt.Errorf("%v", r)),
			)
		}
	}()

	start := time.Now()
	sl.s.Screen(symbols, o.stats)
	rows := sl.s.Screened()
	sl.matches = len(rows) - 1
	o.store.Publish(sl.s.Name(), rows)
	o.metrics.RecordScreen(sl.s.Name(), sl.matches)
	o.log.Debug("screen pass done",
		logger.String("screener", sl.s.Name()),
		logger.Int("symbols", len(symbols)),
		logger.Int("matches", sl.matches),
		logger.Duration("took", time.Since(start)),
	)
}

// States returns the schedule view of every screener in registration order.
func (o *Orchestrator) States() []models.ScreenerState {
	out := make([]models.ScreenerState, 0, len(o.slots))
	for _, sl := range o.slots {
		out = append(out, models.ScreenerState{
			Name:        sl.s.Name(),
			Kind:        sl.s.Kind(),
			Source:      sl.s.Source(),
			Notify:      sl.s.NotifyKind(),
			TickerKind:  sl.s.TickerKind(),
			IntervalSec: int64(sl.s.Interval() / time.Second),
			LastUpdate:  sl.lastUpdate,
			Fresh:       sl.fresh,
			Backlog:     sl.backlog,
			Matches:     sl.matches,
		})
	}
	return out
}
