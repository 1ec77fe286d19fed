package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	AWDBBaseURL    string
	AWDBNetwork    string
	CatalogTimeout time.Duration
	DataTimeout    time.Duration
	LookbackYears  int

	HTTPAddr        string
	OpsAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchConcurrency int
	TemperatureUnit  string
	DefaultSiteCount int
	MaxSiteCount     int

	// Kafka overview sink configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaOverviewTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	catalogTimeout, err := parsePositiveDuration("AWDB_CATALOG_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	dataTimeout, err := parsePositiveDuration("AWDB_DATA_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	lookbackYears, err := parseBoundedInt("LOOKBACK_YEARS", 5, 1, 30)
	if err != nil {
		return nil, err
	}

	fetchConcurrency, err := parseBoundedInt("FETCH_CONCURRENCY", 1, 1, 32)
	if err != nil {
		return nil, err
	}

	maxSiteCount, err := parseBoundedInt("MAX_SITE_COUNT", 10, 1, 100)
	if err != nil {
		return nil, err
	}

	defaultSiteCount, err := parseBoundedInt("DEFAULT_SITE_COUNT", 5, 1, 100)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		AWDBBaseURL:    envOrDefault("AWDB_BASE_URL", "https://wcc.sc.egov.usda.gov/awdbRestApi/services/v1"),
		AWDBNetwork:    envOrDefault("AWDB_NETWORK", "SCAN"),
		CatalogTimeout: catalogTimeout,
		DataTimeout:    dataTimeout,
		LookbackYears:  lookbackYears,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		OpsAddr:         envOrDefault("OPS_ADDR", ":9090"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FetchConcurrency: fetchConcurrency,
		TemperatureUnit:  envOrDefault("TEMPERATURE_UNIT", "fahrenheit"),
		DefaultSiteCount: defaultSiteCount,
		MaxSiteCount:     maxSiteCount,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaOverviewTopic: envOrDefault("KAFKA_OVERVIEW_TOPIC", "station-overviews"),
	}

	if cfg.AWDBBaseURL == "" {
		return nil, errors.New("AWDB_BASE_URL is required")
	}
	if cfg.AWDBNetwork == "" {
		return nil, errors.New("AWDB_NETWORK is required")
	}
	if cfg.TemperatureUnit != "fahrenheit" && cfg.TemperatureUnit != "celsius" {
		return nil, errors.New("TEMPERATURE_UNIT must be fahrenheit or celsius")
	}
	if cfg.DefaultSiteCount > cfg.MaxSiteCount {
		return nil, errors.New("DEFAULT_SITE_COUNT exceeds MAX_SITE_COUNT")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaOverviewTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_OVERVIEW_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBoundedInt(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
