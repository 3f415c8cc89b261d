package screener

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScreen/internal/domain/models"
)

var fixedNow = time.Date(2021, 4, 9, 14, 30, 0, 0, time.UTC)

type notification struct {
	kind, screener string
	msg            map[string]string
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []notification
	channels map[string]bool
}

func (f *fakeNotifier) Notify(kind, screener string, msg map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind, screener, msg})
}

func (f *fakeNotifier) HasChannel(kind string) bool {
	if f.channels == nil {
		return true
	}
	return f.channels[kind]
}

type faultCounter struct {
	faults map[string]int
}

func (faultCounter) RecordTick(float64)                     {}
func (faultCounter) RecordUpdate(string, bool)              {}
func (faultCounter) RecordScreen(string, int)               {}
func (faultCounter) RecordBacklog(string, bool)             {}
func (c faultCounter) RecordFilterFault(s string)           { c.faults[s]++ }
func (faultCounter) RecordGroupRefresh(bool)                {}
func (faultCounter) RecordNotification(string, string)      {}
func (faultCounter) RecordSourceLoad(string, bool, float64) {}

func testDeps(n *fakeNotifier) Deps {
	d := Deps{Clock: func() time.Time { return fixedNow }}
	if n != nil {
		d.Notifier = n
	}
	return d
}

func testOptions(name, source, notify string) options {
	return options{
		name:       name,
		tickerKind: models.GroupAll,
		interval:   time.Hour,
		multiplier: 1,
		source:     source,
		notify:     notify,
	}
}

// source builds stats for one source from raw JSON payloads.
func source(name string, records map[string]string) models.TickerStats {
	syms := make(map[string]json.RawMessage, len(records))
	for sym, raw := range records {
		syms[sym] = json.RawMessage(raw)
	}
	return models.TickerStats{name: {UpdatedAt: fixedNow, Symbols: syms}}
}

func TestHeaderKeepsColumnOrder(t *testing.T) {
	b, err := json.Marshal(cashHeader)
	require.NoError(t, err)
	assert.Equal(t,
		`{"symbol":"Symbol","time":"Time","cur_mcap":"Market Cap","total_cash":"Total Cash","price":"Price","ftwh":"High","ftwl":"Low"}`,
		string(b))
}

func TestEvalRecoversPanics(t *testing.T) {
	err := eval("X", func() error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})

	var ff *FilterFault
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, "X", ff.Symbol)
}

func TestUnavailableLogsOncePerReason(t *testing.T) {
	s := NewOptIV(testOptions("OPT_IV", "options", ""), testDeps(nil))

	assert.False(t, s.Update(nil, models.TickerStats{}))
	assert.Equal(t, "data source options not loaded", s.lastReason)
	assert.False(t, s.Update(nil, models.TickerStats{}))

	stats := source("options", map[string]string{"AAPL": `[]`})
	stats["options"].Pending = true
	assert.False(t, s.Update(nil, stats))
	assert.Equal(t, "data source options is still being updated", s.lastReason)

	stats["options"].Pending = false
	assert.True(t, s.Update(nil, stats))
	assert.Empty(t, s.lastReason)
}
