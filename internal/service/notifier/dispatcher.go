// Package notifier fans screener alerts out to the configured channels without
// blocking the scheduling loop.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	drepo "FinScreen/internal/domain/repository"
	"FinScreen/internal/service/ratelimit"
	applogger "FinScreen/pkg/logger"
)

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultDropped = "dropped"
	resultUnknown = "unknown_channel"
)

// Dispatcher implements repository.Notifier. Notify only enqueues; a single
// worker paces each channel kind through the limiter and delivers in order.
type Dispatcher struct {
	channels map[string]Channel
	limiter  *ratelimit.Limiter
	metrics  drepo.Metrics
	l        *applogger.Logger

	sendTimeout time.Duration
	clock       func() time.Time

	mu     sync.RWMutex
	queue  chan Message
	closed bool
	done   chan struct{}

	// canceled when Stop gives up on the flush
	ctx    context.Context
	cancel context.CancelFunc
}

type DispatcherOption func(*Dispatcher)

// WithQueueSize sets the buffered queue length. Alerts beyond it are dropped.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

// WithRateLimit paces each channel kind to perSec with the given burst.
// Alerts over the rate wait in the queue.
func WithRateLimit(perSec float64, burst int) DispatcherOption {
	return func(d *Dispatcher) { d.limiter = ratelimit.New(perSec, burst) }
}

// WithSendTimeout bounds a single channel Send.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

func NewDispatcher(channels []Channel, metrics drepo.Metrics, l *applogger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		channels:    make(map[string]Channel, len(channels)),
		limiter:     ratelimit.New(0, 1),
		metrics:     metrics,
		l:           l.Named("notifier"),
		sendTimeout: 10 * time.Second,
		clock:       time.Now,
		queue:       make(chan Message, 256),
		done:        make(chan struct{}),
	}
	for _, c := range channels {
		d.channels[c.Kind()] = c
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	go d.work()
	return d
}

// HasChannel reports whether a channel kind is configured.
func (d *Dispatcher) HasChannel(kind string) bool {
	_, ok := d.channels[kind]
	return ok
}

// Notify never blocks and never fails the caller; problems are logged and counted.
func (d *Dispatcher) Notify(kind, screener string, fields map[string]string) {
	if !d.HasChannel(kind) {
		d.metrics.RecordNotification(kind, resultUnknown)
		d.l.Warn("notification for unknown channel", applogger.String("kind", kind), applogger.String("screener", screener))
		return
	}

	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m := Message{ID: uuid.NewString(), Kind: kind, Screener: screener, At: d.clock(), Fields: cp}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.RecordNotification(kind, resultDropped)
		return
	}
	select {
	case d.queue <- m:
	default:
		d.metrics.RecordNotification(kind, resultDropped)
		d.l.Warn("notification queue full, dropping", applogger.String("kind", kind), applogger.String("screener", screener))
	}
}

func (d *Dispatcher) work() {
	defer close(d.done)
	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Message) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecordNotification(m.Kind, resultFailed)
			d.l.Error("notification channel panicked", applogger.String("kind", m.Kind), applogger.Any("panic", r))
		}
	}()

	if err := d.limiter.Wait(d.ctx, m.Kind); err != nil {
		d.metrics.RecordNotification(m.Kind, resultDropped)
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.sendTimeout)
	defer cancel()
	if err := d.channels[m.Kind].Send(ctx, m); err != nil {
		d.metrics.RecordNotification(m.Kind, resultFailed)
		d.l.Warn("notification failed",
			applogger.String("kind", m.Kind),
			applogger.String("id", m.ID),
			applogger.Error(err),
		)
		return
	}
	d.metrics.RecordNotification(m.Kind, resultSent)
}

// Stop flushes queued alerts until ctx expires, then closes every channel.
// Alerts still queued or waiting on the rate limit at the deadline are dropped.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	var err error
	select {
	case <-d.done:
	case <-ctx.Done():
		err = ctx.Err()
		d.l.Warn("notification flush interrupted", applogger.Int("pending", len(d.queue)))
		d.cancel()
		// an in-flight Send gets at most one send timeout to observe the cancel
		select {
		case <-d.done:
		case <-time.After(d.sendTimeout):
		}
	}
	d.cancel()

	for kind, c := range d.channels {
		if cerr := c.Close(); cerr != nil {
			d.l.Warn("close channel", applogger.String("kind", kind), applogger.Error(cerr))
		}
	}
	return err
}
