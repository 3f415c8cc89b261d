package clickhouse

import "fmt"

// StatsSchema returns the DDL for the stats payload table and its refresh
// marker table. Collectors write one row per (source, symbol) refresh and flag
// a source as updating while a batch is in flight.
func StatsSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    source     LowCardinality(String),
    symbol     String,
    payload    String,
    updated_at DateTime64(3)
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY (source, symbol)`, database, table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s_refresh (
    source     LowCardinality(String),
    updating   UInt8,
    updated_at DateTime64(3)
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY source`, database, table),
	}
}
