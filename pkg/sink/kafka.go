package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/pkg/market"
)

const (
	defaultConnectRetries = 5
	defaultConnectDelay   = 2 * time.Second
)

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes item batches to a Kafka topic.
type Kafka struct {
	writer messageWriter
}

// NewKafka creates a Kafka sink. bootstrap can be a comma-separated list
// of host:port.
func NewKafka(bootstrap string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(splitBrokers(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaWith is only for tests to inject a fake writer.
func NewKafkaWith(w messageWriter) *Kafka {
	return &Kafka{writer: w}
}

// Put publishes one batch as a single message keyed by the source URL, so
// batches from the same target land on the same partition in order.
func (k *Kafka) Put(ctx context.Context, batch *market.Batch) error {
	b, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(batch.URL),
		Value: b,
	})
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Connect verifies broker reachability before the sink is first used,
// retrying up to maxRetries times with a fixed delay between attempts.
func Connect(ctx context.Context, bootstrap string, maxRetries int, delay time.Duration) error {
	brokers := splitBrokers(bootstrap)
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers in %q", bootstrap)
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var conn *kafka.Conn
		conn, err = kafka.DialContext(ctx, "tcp", brokers[0])
		if err == nil {
			conn.Close()
			return nil
		}
		if attempt == maxRetries {
			break
		}
		logger.Warn("broker connection failed, retrying",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"delay", delay,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	logger.Error("failed to connect to broker", "attempts", maxRetries+1, "error", err)
	return fmt.Errorf("connect to broker after %d attempts: %w", maxRetries+1, err)
}

// ConnectDefault calls Connect with the default retry policy.
func ConnectDefault(ctx context.Context, bootstrap string) error {
	return Connect(ctx, bootstrap, defaultConnectRetries, defaultConnectDelay)
}

func splitBrokers(bootstrap string) []string {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}
