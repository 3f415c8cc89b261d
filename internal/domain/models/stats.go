package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// SourceStats is the latest raw per-symbol payload published by one data source.
// Record shapes are source-defined; screeners decode only the fields they use.
type SourceStats struct {
	// Pending is set while the source reports it is still being refreshed.
	Pending   bool
	UpdatedAt time.Time
	Symbols   map[string]json.RawMessage
}

// Record returns the raw payload for sym and whether it holds any data.
// Absent, null, {} and [] payloads all count as missing.
func (s *SourceStats) Record(sym string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	raw, ok := s.Symbols[sym]
	if !ok {
		return nil, false
	}
	return raw, !IsEmptyRecord(raw)
}

// Len returns the number of symbols carried by the source.
func (s *SourceStats) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Symbols)
}

// IsEmptyRecord reports whether raw carries no usable data.
func IsEmptyRecord(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch string(t) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

// TickerStats maps a data source name to its latest stats.
type TickerStats map[string]*SourceStats

// Source returns the stats of a source, nil when it has never been loaded.
func (t TickerStats) Source(name string) *SourceStats {
	if t == nil {
		return nil
	}
	return t[name]
}
