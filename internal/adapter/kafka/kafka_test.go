package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	moisture := 11.0
	airTemp := 95.0
	row := domain.OverviewRow{
		Triplet:            "301:MT:SCAN",
		Name:               "Lower Elk",
		DistanceMiles:      12.4,
		SoilMoistureMinPct: &moisture,
		AirTempMax:         &airTemp,
		TemperatureUnit:    domain.Fahrenheit,
		GeneratedAt:        now,
	}

	msg, err := serializeToMessage("sess-1", "SCAN", row)
	require.NoError(t, err)

	assert.Equal(t, []byte("301:MT:SCAN"), msg.Key)
	assert.Contains(t, string(msg.Value), `"soil_moisture_min_pct":11`)
	assert.Contains(t, string(msg.Value), `"air_temp_max":95`)
	assert.Contains(t, string(msg.Value), `"temperature_unit":"fahrenheit"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "session_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("sess-1"), msg.Headers[0].Value)
	assert.Equal(t, "network", msg.Headers[1].Key)
	assert.Equal(t, []byte("SCAN"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeToMessage_OmitsMissingStatistics(t *testing.T) {
	row := domain.OverviewRow{
		Triplet:         "301:MT:SCAN",
		Name:            "Lower Elk",
		TemperatureUnit: domain.Fahrenheit,
	}

	msg, err := serializeToMessage("sess-1", "SCAN", row)
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), "soil_moisture_min_pct")
	assert.NotContains(t, string(msg.Value), "air_temp_max")
	assert.NotContains(t, string(msg.Value), "elevation_feet")
}

func TestPublishOverview_NoRowsIsNoop(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaOverviewTopic: "station-overviews",
	}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	// No broker connection is made when there is nothing to publish.
	err := w.PublishOverview(context.Background(), "sess-1", nil)
	assert.NoError(t, err)
}

func TestNewWriter_Configuration(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:       []string{"broker-1:9092", "broker-2:9092"},
		KafkaOverviewTopic: "station-overviews",
	}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.Equal(t, "station-overviews", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}
