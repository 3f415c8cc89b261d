package models

import "time"

// ScreenerState is the read-only schedule view of one screener.
type ScreenerState struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	Notify      string    `json:"notify,omitempty"`
	TickerKind  GroupKind `json:"ticker_kind"`
	IntervalSec int64     `json:"interval_sec"`
	LastUpdate  time.Time `json:"last_update"`
	Fresh       bool      `json:"fresh"`
	Backlog     bool      `json:"backlog"`
	Matches     int       `json:"matches"`
}
