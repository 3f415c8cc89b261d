package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
tickers:
  path: tickers.yaml
data_sources:
  - name: summary
screeners:
  - kind: CASH_MCAP
    data: summary
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Environment)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, time.Second, c.Loop.Tick.D())
	assert.Equal(t, 6*time.Hour, c.Loop.GCInterval.D())
	assert.Equal(t, 24*time.Hour, c.Loop.TickerRefresh.D())
	assert.Equal(t, time.Minute, c.Loop.TickerRetry.D())
	assert.Equal(t, 8080, c.UI.Port)
	assert.True(t, c.UI.CORSEnabled())
	assert.Equal(t, "redis", c.DataSources[0].Backend)
	assert.Equal(t, time.Minute, c.DataSources[0].Refresh.D())
	assert.Equal(t, 256, c.Notifier.QueueSize)
	assert.Equal(t, 10*time.Second, c.Notifier.SendTimeout.D())
	assert.Equal(t, -1, c.Notifier.Kafka.RequiredAcks())
	assert.Equal(t, 3, c.Notifier.Kafka.MaxAttempts)
	assert.Equal(t, 10, c.Redis.PoolSize)
	assert.Equal(t, 30*time.Second, c.Redis.PoolTimeout.D())
	assert.Equal(t, "native", c.ClickHouse.Protocol)

	s := c.Screeners[0]
	assert.Equal(t, "CASH_MCAP", s.Name)
	assert.Equal(t, "ALL", s.TickerKind)
	assert.Equal(t, 86400, s.Interval)
	assert.Equal(t, 1, s.Multiplier)
}

func TestParseKeepsExplicitValues(t *testing.T) {
	c, err := Parse([]byte(`
loop: {tick: 250ms}
ui: {cors: false}
tickers: {provider: http, url: "http://lists.local/tickers"}
data_sources: [{name: opts, backend: clickhouse, refresh: 5m}]
clickhouse: {host: ch.local, protocol: http}
notifier: {kafka: {acks: leader}}
screeners: [{name: iv, kind: OPT_IV, ticker_kind: MEGACAP, interval: 3600, data: opts}]
`), ".yml")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, c.Loop.Tick.D())
	assert.False(t, c.UI.CORSEnabled())
	assert.Equal(t, "http", c.ClickHouse.Protocol)
	assert.Equal(t, 1, c.Notifier.Kafka.RequiredAcks())
	assert.Equal(t, 5*time.Minute, c.DataSources[0].Refresh.D())
	assert.Equal(t, "iv", c.Screeners[0].Name)
	assert.Equal(t, 3600, c.Screeners[0].Interval)
	assert.True(t, c.UsesBackend("clickhouse"))
	assert.False(t, c.UsesBackend("redis"))
}

func TestParseTOML(t *testing.T) {
	c, err := Parse([]byte(`
environment = "prod"

[tickers]
path = "tickers.yaml"

[[data_sources]]
name = "summary"

[[screeners]]
kind = "CASH_MCAP"
data = "summary"
interval = 60
`), ".toml")
	require.NoError(t, err)
	assert.Equal(t, "prod", c.Environment)
	assert.Equal(t, 60, c.Screeners[0].Interval)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"no screeners": `
tickers: {path: t.yaml}
data_sources: [{name: s}]
`,
		"unknown data source": `
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: other}]
`,
		"duplicate source": `
tickers: {path: t.yaml}
data_sources: [{name: s}, {name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"clickhouse without host": `
tickers: {path: t.yaml}
data_sources: [{name: s, backend: clickhouse}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"http provider without url": `
tickers: {provider: http}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"bad log level": `
log: {level: loud}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"bad duration": `
loop: {tick: soon}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,		"unknown kafka acks": `
notifier: {kafka: {acks: some}}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"negative refresh": `
tickers: {path: t.yaml}
data_sources: [{name: s, refresh: -1m}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"negative ticker refresh": `
loop: {ticker_refresh: -24h}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"negative ticker retry": `
loop: {ticker_retry: -1s}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"negative push interval": `
ui: {push_interval: -5s}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
		"negative send timeout": `
notifier: {send_timeout: -1s}
tickers: {path: t.yaml}
data_sources: [{name: s}]
screeners: [{kind: CASH_MCAP, data: s}]
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestValidateNamesNonPositivePeriod(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), ".yaml")
	require.NoError(t, err)

	c.DataSources[0].Refresh = Duration(-time.Minute)
	assert.EqualError(t, c.Validate(), "data_sources[summary]: refresh must be positive")

	c.DataSources[0].Refresh = Duration(time.Minute)
	c.Loop.TickerRetry = Duration(-time.Second)
	assert.EqualError(t, c.Validate(), "loop.ticker_retry must be positive")

	c.Loop.TickerRetry = Duration(time.Second)
	c.Loop.TickerRefresh = Duration(-time.Hour)
	assert.EqualError(t, c.Validate(), "loop.ticker_refresh must be positive")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	t.Setenv("SCREENER_PORT", "9090")
	t.Setenv("SCREENER_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCREENER_TELEGRAM_CHAT_ID", "42")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.UI.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Notifier.Kafka.Brokers)
	assert.Equal(t, int64(42), c.Notifier.Telegram.ChatID)

	t.Setenv("SCREENER_PORT", "not-a-port")
	_, err = LoadWithEnv(path)
	assert.Error(t, err)
}
