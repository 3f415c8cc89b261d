package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FinScreen/internal/domain/models"
	"FinScreen/pkg/cache"
)

// RedisStatsSource reads one source from a hash "stats:<source>" holding one
// JSON payload per symbol. "stats:<source>:updated" is "0" or "false" while the
// collector is rewriting the hash; an absent flag means complete. Both keys are
// read in a single transaction.
type RedisStatsSource struct {
	name  string
	r     cache.Reader
	clock func() time.Time
}

func NewRedisStatsSource(name string, r cache.Reader) *RedisStatsSource {
	return &RedisStatsSource{name: name, r: r, clock: time.Now}
}

func (s *RedisStatsSource) Name() string { return s.name }

func (s *RedisStatsSource) Load(ctx context.Context) (*models.SourceStats, error) {
	snap, err := s.r.ReadHash(ctx, cache.Key("stats", s.name), cache.Key("stats", s.name, "updated"))
	if err != nil {
		return nil, fmt.Errorf("redis stats %s: %w", s.name, err)
	}

	symbols := make(map[string]json.RawMessage, len(snap.Fields))
	for sym, payload := range snap.Fields {
		symbols[sym] = json.RawMessage(payload)
	}
	return &models.SourceStats{
		Pending:   pending(snap),
		UpdatedAt: s.clock(),
		Symbols:   symbols,
	}, nil
}

func pending(snap cache.HashSnapshot) bool {
	if !snap.HasFlag {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(snap.Flag)) {
	case "0", "false":
		return true
	}
	return false
}
