package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinScreen/internal/domain/models"
	pkgch "FinScreen/pkg/clickhouse"
	applogger "FinScreen/pkg/logger"
)

// CHStatsSource reads the newest payload of every symbol of one source.
type CHStatsSource struct {
	name  string
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHStatsSource reads from database.table; see pkg/clickhouse.StatsSchema.
func NewCHStatsSource(name string, ch *pkgch.Client, database, table string, l *applogger.Logger) *CHStatsSource {
	return &CHStatsSource{
		name:  name,
		db:    ch.DB(),
		table: database + "." + table,
		l:     l.Named("clickhouse_stats"),
	}
}

func (s *CHStatsSource) Name() string { return s.name }

func latestPayloadQuery(table string) string {
	return fmt.Sprintf(`
        SELECT symbol, argMax(payload, updated_at), max(updated_at)
        FROM %s
        WHERE source = ?
        GROUP BY symbol
    `, table)
}

func refreshFlagQuery(table string) string {
	return fmt.Sprintf(`
        SELECT argMax(updating, updated_at)
        FROM %s_refresh
        WHERE source = ?
    `, table)
}

func (s *CHStatsSource) Load(ctx context.Context) (*models.SourceStats, error) {
	start := time.Now()

	var updating uint8
	if err := s.db.QueryRowContext(ctx, refreshFlagQuery(s.table), s.name).Scan(&updating); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clickhouse refresh flag %s: %w", s.name, err)
	}

	rows, err := s.db.QueryContext(ctx, latestPayloadQuery(s.table), s.name)
	if err != nil {
		return nil, fmt.Errorf("clickhouse stats %s: %w", s.name, err)
	}
	defer rows.Close()

	out := &models.SourceStats{
		Pending: updating != 0,
		Symbols: make(map[string]json.RawMessage, 1024),
	}
	for rows.Next() {
		var (
			sym, payload string
			updated      time.Time
		)
		if err := rows.Scan(&sym, &payload, &updated); err != nil {
			return nil, fmt.Errorf("scan stats %s: %w", s.name, err)
		}
		out.Symbols[sym] = json.RawMessage(payload)
		if updated.After(out.UpdatedAt) {
			out.UpdatedAt = updated
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse stats loaded",
		applogger.String("source", s.name),
		applogger.Int("symbols", len(out.Symbols)),
		applogger.Bool("pending", out.Pending),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
