package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
)

// Writer produces overview rows to a Kafka topic.
// It implements discovery.OverviewSink.
type Writer struct {
	writer  *kafkago.Writer
	network string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured overview topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOverviewTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, network: cfg.AWDBNetwork, logger: logger}
}

// PublishOverview serializes a session's overview rows and publishes them in
// a single WriteMessages call, keyed by station triplet.
func (w *Writer) PublishOverview(ctx context.Context, sessionID string, rows []domain.OverviewRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(sessionID, w.network, rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Info("published overview rows", "session_id", sessionID, "rows", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an overview row into a Kafka message.
func serializeToMessage(sessionID, network string, row domain.OverviewRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize overview row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Triplet),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "session_id", Value: []byte(sessionID)},
			{Key: "network", Value: []byte(network)},
			{Key: "generated_at", Value: []byte(row.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
