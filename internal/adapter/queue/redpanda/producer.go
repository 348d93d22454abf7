// Package redpanda publishes usage events to a Redpanda/Kafka topic.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// DefaultTopic receives one record per successful routed call.
const DefaultTopic = "ai-usage-events"

// syncProducer is the produce surface of *kgo.Client.
type syncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer implements domain.UsageRecorder over franz-go.
type Producer struct {
	client syncProducer
	topic  string
}

// NewProducer connects to brokers, makes sure topic exists and returns a
// producer. Topic creation failures are logged; the broker may auto-create.
func NewProducer(ctx context.Context, brokers []string, topic string, bo backoff.BackOff) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w: no seed brokers", domain.ErrInvalidArgument)
	}
	if topic == "" {
		topic = DefaultTopic
	}

	tracer := kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))
	k := kotel.NewKotel(kotel.WithTracer(tracer))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequestRetries(5),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(k.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w", err)
	}
	if err := ensureTopic(ctx, client, topic, 1, 1, bo); err != nil {
		slog.Warn("usage topic not ensured", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda producer ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Producer{client: client, topic: topic}, nil
}

// newRecord encodes ev as JSON keyed by caller so one caller's events keep
// their order within a partition.
func newRecord(topic string, ev domain.UsageEvent) (*kgo.Record, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(ev.CallerID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "provider", Value: []byte(ev.Provider)},
		},
	}, nil
}

// RecordUsage publishes ev and waits for the broker ack.
func (p *Producer) RecordUsage(ctx context.Context, ev domain.UsageEvent) error {
	rec, err := newRecord(p.topic, ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.record_usage: marshal: %w", err)
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.record_usage: %w", err)
	}
	return nil
}

// Close releases the client.
func (p *Producer) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
