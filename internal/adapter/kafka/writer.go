// Package kafka publishes the dashboard feed to a Kafka topic so downstream
// consumers see each run's snapshot without polling data.json.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/config"
	"github.com/couchcryptid/fuelplan-etl/internal/report"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces feed entries to a Kafka topic.
// It implements pipeline.FeedPublisher.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured feed topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

// Publish writes every entry in a single WriteMessages call. Entries are
// keyed by site so a compacted topic keeps the latest plan per site.
func (w *Writer) Publish(ctx context.Context, entries []report.FeedEntry, generatedAt time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(entries))
	for i := range entries {
		msg, err := serializeToMessage(entries[i], generatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d feed entries to %s: %w", len(msgs), w.topic, err)
	}
	w.logger.Debug("feed published", "topic", w.topic, "entries", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FeedEntry into a Kafka message.
func serializeToMessage(entry report.FeedEntry, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feed entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.SiteName),
		Value: data,
		Time:  generatedAt,
		Headers: []kafkago.Header{
			{Key: "fuel_date", Value: []byte(entry.NextFuelingPlan)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
