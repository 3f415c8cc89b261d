package usecase

import (
	"context"
	"time"

	"FinScreen/internal/domain/models"
	drepo "FinScreen/internal/domain/repository"
	"FinScreen/pkg/logger"
)

// TickerCache serves ticker groups and refreshes them wholesale once per window.
// It is owned by the scheduling goroutine.
type TickerCache struct {
	provider drepo.SymbolListProvider
	metrics  drepo.Metrics
	log      *logger.Logger

	refresh time.Duration
	retry   time.Duration
	clock   func() time.Time

	groups      models.TickerGroups
	refreshed   time.Time
	nextAttempt time.Time
}

type TickerCacheOption func(*TickerCache)

// WithRefreshInterval sets how long a successful refresh is served.
func WithRefreshInterval(d time.Duration) TickerCacheOption {
	return func(c *TickerCache) { c.refresh = d }
}

// WithRetryInterval sets the wait after a failed refresh.
func WithRetryInterval(d time.Duration) TickerCacheOption {
	return func(c *TickerCache) { c.retry = d }
}

func WithCacheClock(clock func() time.Time) TickerCacheOption {
	return func(c *TickerCache) { c.clock = clock }
}

func NewTickerCache(provider drepo.SymbolListProvider, metrics drepo.Metrics, log *logger.Logger, opts ...TickerCacheOption) *TickerCache {
	c := &TickerCache{
		provider: provider,
		metrics:  metrics,
		log:      log.Named("ticker_cache"),
		refresh:  24 * time.Hour,
		retry:    time.Minute,
		clock:    time.Now,
		groups:   models.NewTickerGroups(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Groups returns the current mapping, refreshing it first when the window has elapsed.
// A failed refresh keeps the previous mapping.
func (c *TickerCache) Groups(ctx context.Context) models.TickerGroups {
	now := c.clock()
	if !c.nextAttempt.IsZero() && now.Before(c.nextAttempt) {
		return c.groups
	}

	start := time.Now()
	lists, err := c.provider.TickerLists(ctx)
	if err != nil {
		c.metrics.RecordGroupRefresh(false)
		c.nextAttempt = now.Add(c.retry)
		c.log.Error("ticker group refresh failed",
			logger.Error(err),
			logger.Duration("retry_in", c.retry),
		)
		return c.groups
	}

	groups, unknown := models.Normalize(lists)
	if len(unknown) > 0 {
		c.log.Warn("ignoring unknown ticker groups", logger.Strings("groups", unknown))
	}
	c.groups = groups
	c.refreshed = now
	c.nextAttempt = now.Add(c.refresh)
	c.metrics.RecordGroupRefresh(true)

	total := 0
	for _, syms := range groups {
		total += len(syms)
	}
	c.log.Info("ticker groups refreshed",
		logger.Int("groups", len(groups)),
		logger.Int("symbols", total),
		logger.Duration("took", time.Since(start)),
	)
	return c.groups
}

// Refreshed returns the time of the last successful refresh, zero before the first.
func (c *TickerCache) Refreshed() time.Time { return c.refreshed }
