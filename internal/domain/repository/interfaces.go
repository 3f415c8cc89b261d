package repository

import (
	"context"

	"FinScreen/internal/domain/models"
)

// SymbolListProvider supplies the ticker groups. Called at most once per refresh window.
type SymbolListProvider interface {
	TickerLists(ctx context.Context) (map[string][]string, error)
}

// StatsSource loads a full snapshot of one data source.
type StatsSource interface {
	Name() string
	Load(ctx context.Context) (*models.SourceStats, error)
}

// StatsFeed hands the most recent complete snapshots to the scheduling loop.
type StatsFeed interface {
	Collect(into models.TickerStats)
}

// Notifier is the fire-and-forget notification side channel.
type Notifier interface {
	Notify(kind, screener string, msg map[string]string)
}

type Metrics interface {
	RecordTick(seconds float64)
	RecordUpdate(screener string, ok bool)
	RecordScreen(screener string, matches int)
	RecordBacklog(screener string, backlog bool)
	RecordFilterFault(screener string)
	RecordGroupRefresh(ok bool)
	RecordNotification(kind, result string)
	RecordSourceLoad(source string, ok bool, seconds float64)
}
