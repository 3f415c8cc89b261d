package notifier

import (
	"context"
)

type producer interface {
	Send(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaChannel publishes alerts as JSON keyed by screener name.
type KafkaChannel struct {
	p producer
}

// NewKafkaChannel wraps a producer such as *kafka.Producer.
func NewKafkaChannel(p producer) *KafkaChannel {
	return &KafkaChannel{p: p}
}

func (c *KafkaChannel) Kind() string { return "kafka" }

func (c *KafkaChannel) Send(ctx context.Context, m Message) error {
	return c.p.Send(ctx, []byte(m.Screener), m)
}

func (c *KafkaChannel) Close() error { return c.p.Close() }
