package notifier

import (
	"context"

	applogger "FinScreen/pkg/logger"
)

// LogChannel writes alerts to the application log. Always available.
type LogChannel struct {
	l *applogger.Logger
}

func NewLogChannel(l *applogger.Logger) *LogChannel {
	return &LogChannel{l: l.Named("alerts")}
}

func (c *LogChannel) Kind() string { return "log" }

func (c *LogChannel) Send(_ context.Context, m Message) error {
	fields := []applogger.Field{
		applogger.String("id", m.ID),
		applogger.String("screener", m.Screener),
	}
	for k, v := range m.Fields {
		fields = append(fields, applogger.String(k, v))
	}
	c.l.Info("screener alert", fields...)
	return nil
}

func (c *LogChannel) Close() error { return nil }
