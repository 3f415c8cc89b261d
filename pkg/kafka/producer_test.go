package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewProducerValidates(t *testing.T) {
	if _, err := NewProducer(WithTopic("alerts")); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewProducer(WithBrokers([]string{"localhost:9092"})); err == nil {
		t.Fatal("expected error without topic")
	}

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithTopic("alerts"), WithCompression("zstd"))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	defer p.Close()
	if p.Topic() != "alerts" {
		t.Fatalf("topic = %q", p.Topic())
	}
	if p.writer.Compression != kafka.Zstd {
		t.Fatalf("compression = %v", p.writer.Compression)
	}
}

func TestEncode(t *testing.T) {
	b, err := encode(map[string]string{"symbol": "X"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"symbol":"X"}` {
		t.Fatalf("encode = %s", b)
	}
	b, _ = encode("raw")
	if string(b) != "raw" {
		t.Fatalf("encode string = %s", b)
	}
}
