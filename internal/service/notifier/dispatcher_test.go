package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	drepo "FinScreen/internal/domain/repository"
	applogger "FinScreen/pkg/logger"
	"FinScreen/pkg/metrics"
)

var (
	_ drepo.Notifier = (*Dispatcher)(nil)
	_ Channel        = (*LogChannel)(nil)
	_ Channel        = (*KafkaChannel)(nil)
	_ Channel        = (*TelegramChannel)(nil)
)

type memChannel struct {
	kind string

	mu     sync.Mutex
	sent   []Message
	err    error
	block  chan struct{}
	closed bool
}

func (c *memChannel) Kind() string { return c.kind }

func (c *memChannel) Send(_ context.Context, m Message) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return c.err
}

func (c *memChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *memChannel) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

type countingMetrics struct {
	metrics.Nop
	mu      sync.Mutex
	results map[string]int
}

func (m *countingMetrics) RecordNotification(kind, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[kind+"/"+result]++
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[key]
}

func newCounting() *countingMetrics { return &countingMetrics{results: map[string]int{}} }

func TestDispatcherDelivers(t *testing.T) {
	ch := &memChannel{kind: "log"}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop())

	fields := map[string]string{"symbol": "X", "cur_mcap": "2.0B"}
	d.Notify("log", "CASH_MCAP", fields)
	fields["symbol"] = "mutated"
	require.NoError(t, d.Stop(context.Background()))

	sent := ch.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "CASH_MCAP", sent[0].Screener)
	assert.Equal(t, "X", sent[0].Fields["symbol"])
	assert.NotEmpty(t, sent[0].ID)
	assert.True(t, ch.closed)
	assert.Equal(t, 1, m.get("log/sent"))
}

func TestDispatcherUnknownChannel(t *testing.T) {
	m := newCounting()
	d := NewDispatcher([]Channel{&memChannel{kind: "log"}}, m, applogger.Nop())
	defer d.Stop(context.Background())

	assert.NotPanics(t, func() { d.Notify("sms", "CASH_MCAP", nil) })
	assert.Equal(t, 1, m.get("sms/unknown_channel"))
	assert.True(t, d.HasChannel("log"))
	assert.False(t, d.HasChannel("sms"))
}

func TestDispatcherFailureIsCounted(t *testing.T) {
	ch := &memChannel{kind: "kafka", err: errors.New("broker down")}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop())

	d.Notify("kafka", "OPT_IV", map[string]string{"symbol": "X"})
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 1, m.get("kafka/failed"))
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	ch := &memChannel{kind: "log", block: make(chan struct{})}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop(), WithQueueSize(1))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify("log", "S", map[string]string{"symbol": "X"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
	close(ch.block)
	require.NoError(t, d.Stop(context.Background()))

	assert.GreaterOrEqual(t, m.get("log/dropped"), 3)
	assert.Equal(t, 5, m.get("log/dropped")+len(ch.Sent()))
}

func TestDispatcherDeliversBurstUnderLimit(t *testing.T) {
	ch := &memChannel{kind: "telegram"}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop(), WithQueueSize(256), WithRateLimit(1000, 5))

	for i := 0; i < 40; i++ {
		d.Notify("telegram", "CASH_MCAP", map[string]string{"symbol": "X"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Len(t, ch.Sent(), 40)
	assert.Equal(t, 40, m.get("telegram/sent"))
	assert.Zero(t, m.get("telegram/dropped"))
}

func TestDispatcherPacesOverRate(t *testing.T) {
	ch := &memChannel{kind: "telegram"}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop(), WithRateLimit(50, 1))

	start := time.Now()
	for i := 0; i < 5; i++ {
		d.Notify("telegram", "S", map[string]string{"symbol": "X"})
	}
	require.NoError(t, d.Stop(context.Background()))

	assert.Len(t, ch.Sent(), 5, "alerts over the rate are delayed, not dropped")
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestDispatcherStopBoundsRateWait(t *testing.T) {
	ch := &memChannel{kind: "telegram"}
	m := newCounting()
	d := NewDispatcher([]Channel{ch}, m, applogger.Nop(), WithRateLimit(0.001, 1))

	for i := 0; i < 3; i++ {
		d.Notify("telegram", "S", map[string]string{"symbol": "X"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Len(t, ch.Sent(), 1)
	assert.Equal(t, 2, m.get("telegram/dropped"))
	assert.True(t, ch.closed)
}

func TestDispatcherStopDoesNotWaitOnStuckSend(t *testing.T) {
	ch := &memChannel{kind: "log", block: make(chan struct{})}
	defer close(ch.block)
	d := NewDispatcher([]Channel{ch}, newCounting(), applogger.Nop(), WithSendTimeout(50*time.Millisecond))

	d.Notify("log", "S", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Error(t, d.Stop(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNotifyAfterStop(t *testing.T) {
	m := newCounting()
	d := NewDispatcher([]Channel{&memChannel{kind: "log"}}, m, applogger.Nop())
	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	assert.NotPanics(t, func() { d.Notify("log", "S", nil) })
	assert.Equal(t, 1, m.get("log/dropped"))
}

func TestMessageText(t *testing.T) {
	m := Message{Screener: "CASH_MCAP", Fields: map[string]string{
		"total_cash": "5.0B", "symbol": "X", "cur_mcap": "2.0B",
	}}
	assert.Equal(t, "CASH_MCAP: X cur_mcap=2.0B total_cash=5.0B", m.Text())
}

type stubProducer struct {
	key   []byte
	value interface{}
}

func (p *stubProducer) Send(_ context.Context, key []byte, value interface{}) error {
	p.key, p.value = key, value
	return nil
}

func (p *stubProducer) Close() error { return nil }

func TestKafkaChannelKeysByScreener(t *testing.T) {
	p := &stubProducer{}
	c := NewKafkaChannel(p)
	m := Message{ID: "1", Screener: "OPT_IV", Fields: map[string]string{"symbol": "X"}}

	require.NoError(t, c.Send(context.Background(), m))
	assert.Equal(t, []byte("OPT_IV"), p.key)
	assert.Equal(t, m, p.value)
}

type stubBot struct {
	sent []tgbotapi.Chattable
}

func (b *stubBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramChannelSend(t *testing.T) {
	bot := &stubBot{}
	c := &TelegramChannel{api: bot, chatID: 42}

	require.NoError(t, c.Send(context.Background(), Message{Screener: "S", Fields: map[string]string{"symbol": "X"}}))

	require.Len(t, bot.sent, 1)
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "S: X", msg.Text)
}

func TestNewTelegramChannelRequiresConfig(t *testing.T) {
	_, err := NewTelegramChannel("", 1)
	assert.Error(t, err)
}
