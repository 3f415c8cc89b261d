package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" toml:"environment" default:"dev" validate:"required"`
	Log         LogConfig        `yaml:"log" toml:"log"`
	Loop        LoopConfig       `yaml:"loop" toml:"loop"`
	UI          UIConfig         `yaml:"ui" toml:"ui"`
	Tickers     TickersConfig    `yaml:"tickers" toml:"tickers"`
	Redis       RedisConfig      `yaml:"redis" toml:"redis"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
	DataSources []DataSource     `yaml:"data_sources" toml:"data_sources" validate:"dive"`
	Notifier    NotifierConfig   `yaml:"notifier" toml:"notifier"`
	Screeners   []ScreenerConfig `yaml:"screeners" toml:"screeners" validate:"required,min=1,dive"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" toml:"output" default:"stdout"`
}

type LoopConfig struct {
	Tick          Duration `yaml:"tick" toml:"tick"`
	GCInterval    Duration `yaml:"gc_interval" toml:"gc_interval"`
	TickerRefresh Duration `yaml:"ticker_refresh" toml:"ticker_refresh"`
	TickerRetry   Duration `yaml:"ticker_retry" toml:"ticker_retry"`
}

type UIConfig struct {
	Enabled         bool     `yaml:"enabled" toml:"enabled"`
	Port            int      `yaml:"port" toml:"port" default:"8080" validate:"min=1,max=65535"`
	PushInterval    Duration `yaml:"push_interval" toml:"push_interval"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	// pointer so an explicit false survives defaulting
	CORS            *bool    `yaml:"cors" toml:"cors" default:"true"`
}

// CORSEnabled reports whether cross-origin requests are allowed; unset means yes.
func (u UIConfig) CORSEnabled() bool { return u.CORS == nil || *u.CORS }

type TickersConfig struct {
	Provider string   `yaml:"provider" toml:"provider" default:"file" validate:"oneof=file http"`
	Path     string   `yaml:"path" toml:"path" validate:"required_if=Provider file"`
	URL      string   `yaml:"url" toml:"url" validate:"required_if=Provider http"`
	Timeout  Duration `yaml:"timeout" toml:"timeout"`
}

type RedisConfig struct {
	Addr         string   `yaml:"addr" toml:"addr" default:"localhost:6379"`
	Password     string   `yaml:"password" toml:"password"`
	DB           int      `yaml:"db" toml:"db"`
	Prefix       string   `yaml:"prefix" toml:"prefix" default:"screener"`
	PoolSize     int      `yaml:"pool_size" toml:"pool_size" default:"10" validate:"min=1"`
	MinIdleConns int      `yaml:"min_idle_conns" toml:"min_idle_conns" default:"2"`
	PoolTimeout  Duration `yaml:"pool_timeout" toml:"pool_timeout"`
}

type ClickHouseConfig struct {
	Host     string   `yaml:"host" toml:"host"`
	Protocol string   `yaml:"protocol" toml:"protocol" default:"native" validate:"oneof=native http"`
	Port     int      `yaml:"port" toml:"port" default:"9000"`
	Database string   `yaml:"database" toml:"database" default:"screener"`
	User     string   `yaml:"user" toml:"user" default:"default"`
	Password string   `yaml:"password" toml:"password"`
	Table    string   `yaml:"table" toml:"table" default:"ticker_stats"`
	Timeout  Duration `yaml:"timeout" toml:"timeout"`
}

// DataSource names one stats source and where it is loaded from.
type DataSource struct {
	Name    string   `yaml:"name" toml:"name" validate:"required"`
	Backend string   `yaml:"backend" toml:"backend" default:"redis" validate:"oneof=redis clickhouse"`
	Refresh Duration `yaml:"refresh" toml:"refresh"`
}

type NotifierConfig struct {
	QueueSize   int            `yaml:"queue_size" toml:"queue_size" default:"256" validate:"min=1"`
	RatePerSec  float64        `yaml:"rate_per_sec" toml:"rate_per_sec" default:"1"`
	Burst       int            `yaml:"burst" toml:"burst" default:"5"`
	SendTimeout Duration       `yaml:"send_timeout" toml:"send_timeout"`
	Kafka       KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Telegram    TelegramConfig `yaml:"telegram" toml:"telegram"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" toml:"brokers"`
	Topic       string   `yaml:"topic" toml:"topic" default:"screener.alerts"`
	Compression string   `yaml:"compression" toml:"compression" default:"snappy"`
	Acks        string   `yaml:"acks" toml:"acks" default:"all" validate:"oneof=all leader none"`
	MaxAttempts int      `yaml:"max_attempts" toml:"max_attempts" default:"3" validate:"min=1"`
}

// RequiredAcks maps Acks to the Kafka produce setting.
func (k KafkaConfig) RequiredAcks() int {
	switch k.Acks {
	case "none":
		return 0
	case "leader":
		return 1
	}
	return -1
}

type TelegramConfig struct {
	Token  string `yaml:"token" toml:"token"`
	ChatID int64  `yaml:"chat_id" toml:"chat_id"`
}

// ScreenerConfig is the per-screener option set.
type ScreenerConfig struct {
	Name       string `yaml:"name" toml:"name"`
	Kind       string `yaml:"kind" toml:"kind" validate:"required"`
	TickerKind string `yaml:"ticker_kind" toml:"ticker_kind" default:"ALL"`
	Interval   int    `yaml:"interval" toml:"interval" default:"86400" validate:"gt=0"`
	Multiplier int    `yaml:"multiplier" toml:"multiplier" default:"1"`
	Data       string `yaml:"data" toml:"data" validate:"required"`
	Notify     string `yaml:"notify" toml:"notify"`
}

// Duration parses Go duration strings ("1s", "6h") from YAML, TOML and default tags.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func orDefault(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}

// SetDefaults is invoked by defaults.Set for duration fields.
func (l *LoopConfig) SetDefaults() {
	orDefault(&l.Tick, time.Second)
	orDefault(&l.GCInterval, 6*time.Hour)
	orDefault(&l.TickerRefresh, 24*time.Hour)
	orDefault(&l.TickerRetry, time.Minute)
}

func (u *UIConfig) SetDefaults() {
	orDefault(&u.PushInterval, 5*time.Second)
	orDefault(&u.ShutdownTimeout, 10*time.Second)
}

func (n *NotifierConfig) SetDefaults() { orDefault(&n.SendTimeout, 10*time.Second) }

func (t *TickersConfig) SetDefaults() { orDefault(&t.Timeout, 30*time.Second) }

func (r *RedisConfig) SetDefaults() { orDefault(&r.PoolTimeout, 30*time.Second) }

func (c *ClickHouseConfig) SetDefaults() { orDefault(&c.Timeout, 10*time.Second) }

func (d *DataSource) SetDefaults() { orDefault(&d.Refresh, time.Minute) }

var validate = validator.New()

// Load reads a YAML or TOML configuration file, picked by extension.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, filepath.Ext(path))
}

// Parse decodes raw configuration bytes; ext selects the format (".toml" or YAML otherwise).
func Parse(b []byte, ext string) (*Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.setDefaults(); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config and overrides it with SCREENER_* environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	for i := range c.DataSources {
		if err := defaults.Set(&c.DataSources[i]); err != nil {
			return err
		}
	}
	for i := range c.Screeners {
		if err := defaults.Set(&c.Screeners[i]); err != nil {
			return err
		}
		if c.Screeners[i].Name == "" {
			c.Screeners[i].Name = c.Screeners[i].Kind
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCREENER_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SCREENER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SCREENER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCREENER_PORT: %w", err)
		}
		c.UI.Port = port
	}
	if v := os.Getenv("SCREENER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SCREENER_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SCREENER_CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("SCREENER_KAFKA_BROKERS"); v != "" {
		c.Notifier.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SCREENER_TELEGRAM_TOKEN"); v != "" {
		c.Notifier.Telegram.Token = v
	}
	if v := os.Getenv("SCREENER_TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SCREENER_TELEGRAM_CHAT_ID: %w", err)
		}
		c.Notifier.Telegram.ChatID = id
	}
	return c.Validate()
}

// Validate checks struct rules and cross references between sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	sources := make(map[string]DataSource, len(c.DataSources))
	for _, ds := range c.DataSources {
		if _, dup := sources[ds.Name]; dup {
			return fmt.Errorf("data_sources: duplicate name %q", ds.Name)
		}
		sources[ds.Name] = ds
		if ds.Backend == "clickhouse" && c.ClickHouse.Host == "" {
			return fmt.Errorf("data_sources[%s]: clickhouse.host is required", ds.Name)
		}
		if ds.Refresh.D() <= 0 {
			return fmt.Errorf("data_sources[%s]: refresh must be positive", ds.Name)
		}
	}
	for i, s := range c.Screeners {
		if _, ok := sources[s.Data]; !ok {
			return fmt.Errorf("screeners[%d] (%s): data source %q is not configured", i, s.Name, s.Data)
		}
	}
	// periods feed time.NewTicker and staleness checks; zero was already defaulted
	periods := []struct {
		name string
		d    Duration
	}{
		{"loop.tick", c.Loop.Tick},
		{"loop.ticker_refresh", c.Loop.TickerRefresh},
		{"loop.ticker_retry", c.Loop.TickerRetry},
		{"ui.push_interval", c.UI.PushInterval},
		{"notifier.send_timeout", c.Notifier.SendTimeout},
	}
	for _, p := range periods {
		if p.d.D() <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}
	return nil
}

// UsesBackend reports whether any data source loads from backend.
func (c *Config) UsesBackend(backend string) bool {
	for _, ds := range c.DataSources {
		if ds.Backend == backend {
			return true
		}
	}
	return false
}
