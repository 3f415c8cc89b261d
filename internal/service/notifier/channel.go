package notifier

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Message is one screener alert on its way to a channel.
type Message struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Screener string            `json:"screener"`
	At       time.Time         `json:"time"`
	Fields   map[string]string `json:"data"`
}

// Text renders the message on one line, symbol first then the other fields by name.
func (m Message) Text() string {
	var b strings.Builder
	b.WriteString(m.Screener)
	b.WriteString(":")
	if sym, ok := m.Fields["symbol"]; ok {
		b.WriteString(" ")
		b.WriteString(sym)
	}
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		if k != "symbol" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(m.Fields[k])
	}
	return b.String()
}

// Channel delivers messages to one transport.
type Channel interface {
	Kind() string
	Send(ctx context.Context, m Message) error
	Close() error
}
