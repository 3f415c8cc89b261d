// Package screener holds the screener contract, its two filter variants and the
// registry that builds them from configuration.
//
// A screener is driven by exactly one goroutine (the orchestrator). Update is a
// readiness check over the shared stats; Screen rebuilds the result set from
// scratch; Screened renders the last result set with a column header first.
package screener

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"FinScreen/internal/domain/models"
	drepo "FinScreen/internal/domain/repository"
	"FinScreen/pkg/logger"
	"FinScreen/pkg/metrics"
)

// Screener is the contract every filter variant implements.
type Screener interface {
	Name() string
	Kind() string
	TickerKind() models.GroupKind
	Interval() time.Duration
	// Source is the data source the screener reads; NotifyKind is its alert
	// channel, empty when it does not alert.
	Source() string
	NotifyKind() string
	Update(symbols []string, stats models.TickerStats) bool
	Screen(symbols []string, stats models.TickerStats)
	Screened() []any
}

// Deps are the collaborators shared by all screeners.
type Deps struct {
	Notifier drepo.Notifier
	Metrics  drepo.Metrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// Column is one entry of a result header.
type Column struct {
	Field string
	Label string
}

// Header maps record fields to display labels. It marshals to a JSON object
// that keeps column order.
type Header []Column

func (h Header) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Base carries the options and helpers common to every variant.
type Base struct {
	name       string
	kind       string
	tickerKind models.GroupKind
	interval   time.Duration
	multiplier int
	source     string
	notify     string

	deps       Deps
	log        *logger.Logger
	lastReason string
}

func newBase(kind string, opts options, deps Deps) Base {
	deps = deps.withDefaults()
	b := Base{
		name:       opts.name,
		kind:       kind,
		tickerKind: opts.tickerKind,
		interval:   opts.interval,
		multiplier: opts.multiplier,
		source:     opts.source,
		notify:     opts.notify,
		deps:       deps,
		log:        deps.Logger.Named(opts.name),
	}
	b.log.Info("screener configured",
		logger.String("kind", kind),
		logger.String("ticker_kind", string(opts.tickerKind)),
		logger.Duration("interval", opts.interval),
		logger.Int("multiplier", opts.multiplier),
		logger.String("data", opts.source),
		logger.String("notify", opts.notify),
	)
	return b
}

func (b *Base) Name() string                 { return b.name }
func (b *Base) Kind() string                 { return b.kind }
func (b *Base) TickerKind() models.GroupKind { return b.tickerKind }
func (b *Base) Interval() time.Duration      { return b.interval }
func (b *Base) Source() string               { return b.source }
func (b *Base) NotifyKind() string           { return b.notify }
func (b *Base) Multiplier() int              { return b.multiplier }

// sourceReady returns the configured source when it exists, is not being
// refreshed and carries at least one symbol.
func (b *Base) sourceReady(stats models.TickerStats) (*models.SourceStats, bool) {
	src := stats.Source(b.source)
	switch {
	case src.Len() == 0:
		b.unavailable(fmt.Sprintf("data source %s not loaded", b.source))
		return nil, false
	case src.Pending:
		b.unavailable(fmt.Sprintf("data source %s is still being updated", b.source))
		return nil, false
	}
	return src, true
}

// unavailable logs a DataUnavailable reason once until the screener recovers.
func (b *Base) unavailable(reason string) {
	if reason == b.lastReason {
		return
	}
	b.lastReason = reason
	b.log.Warn("data unavailable", logger.String("reason", reason))
}

func (b *Base) available() {
	if b.lastReason != "" {
		b.log.Info("data available again", logger.String("previous", b.lastReason))
		b.lastReason = ""
	}
}

func (b *Base) fault(err error) {
	b.deps.Metrics.RecordFilterFault(b.name)
	b.log.Warn("symbol skipped", logger.Error(err))
}

func (b *Base) notifyMatch(msg map[string]string) {
	if b.notify == "" || b.deps.Notifier == nil {
		return
	}
	b.deps.Notifier.Notify(b.notify, b.name, msg)
}

func (b *Base) now() int64 { return b.deps.Clock().Unix() }

// eval runs fn for one symbol and turns errors and panics into a FilterFault.
func eval(sym string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FilterFault{Symbol: sym, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e := fn(); e != nil {
		return &FilterFault{Symbol: sym, Err: e}
	}
	return nil
}

// resultSet keeps matched records by symbol in insertion order.
type resultSet[T any] struct {
	order []string
	bySym map[string]T
}

func newResultSet[T any](capacity int) *resultSet[T] {
	return &resultSet[T]{bySym: make(map[string]T, capacity)}
}

func (r *resultSet[T]) put(sym string, rec T) {
	if _, ok := r.bySym[sym]; !ok {
		r.order = append(r.order, sym)
	}
	r.bySym[sym] = rec
}

func (r *resultSet[T]) len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func (r *resultSet[T]) rows(h Header) []any {
	out := make([]any, 0, r.len()+1)
	out = append(out, h)
	if r == nil {
		return out
	}
	for _, sym := range r.order {
		out = append(out, r.bySym[sym])
	}
	return out
}
