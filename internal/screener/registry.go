package screener

import (
	"fmt"
	"sort"
	"time"

	"FinScreen/internal/domain/models"
	"FinScreen/pkg/config"
)

// options is the validated per-screener option set.
type options struct {
	name       string
	tickerKind models.GroupKind
	interval   time.Duration
	multiplier int
	source     string
	notify     string
}

type constructor func(opts options, deps Deps) Screener

var constructors = map[string]constructor{
	KindCashMcap: func(o options, d Deps) Screener { return NewCashMcap(o, d) },
	KindOptIV:    func(o options, d Deps) Screener { return NewOptIV(o, d) },
}

// Kinds lists the registered screener kinds.
func Kinds() []string {
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ChannelChecker is implemented by notifiers that can tell which channel kinds exist.
type ChannelChecker interface {
	HasChannel(kind string) bool
}

// Configure builds the active screeners in configuration order. Any invalid
// entry fails the whole registration.
func Configure(cfgs []config.ScreenerConfig, deps Deps) ([]Screener, error) {
	seen := make(map[string]struct{}, len(cfgs))
	out := make([]Screener, 0, len(cfgs))

	for i, c := range cfgs {
		name := c.Name
		if name == "" {
			name = c.Kind
		}
		build, ok := constructors[c.Kind]
		if !ok {
			return nil, &ConfigError{Index: i, Name: name, Err: fmt.Errorf("%w %q", ErrUnknownKind, c.Kind)}
		}
		opts, err := parseOptions(name, c, deps)
		if err != nil {
			return nil, &ConfigError{Index: i, Name: name, Err: err}
		}
		if _, dup := seen[name]; dup {
			return nil, &ConfigError{Index: i, Name: name, Err: ErrDuplicateName}
		}
		seen[name] = struct{}{}
		out = append(out, build(opts, deps))
	}
	return out, nil
}

func parseOptions(name string, c config.ScreenerConfig, deps Deps) (options, error) {
	if c.Data == "" {
		return options{}, fmt.Errorf("%w: data", ErrMissingOption)
	}
	if c.Interval <= 0 {
		return options{}, fmt.Errorf("%w: interval must be positive", ErrMissingOption)
	}
	tickerKind := models.GroupAll
	if c.TickerKind != "" {
		k, err := models.ParseGroupKind(c.TickerKind)
		if err != nil {
			return options{}, err
		}
		tickerKind = k
	}
	if c.Notify != "" {
		if cc, ok := deps.Notifier.(ChannelChecker); ok && !cc.HasChannel(c.Notify) {
			return options{}, fmt.Errorf("notify channel %q is not configured", c.Notify)
		}
	}
	multiplier := c.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	return options{
		name:       name,
		tickerKind: tickerKind,
		interval:   time.Duration(c.Interval) * time.Second,
		multiplier: multiplier,
		source:     c.Data,
		notify:     c.Notify,
	}, nil
}
