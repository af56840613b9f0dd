package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all serve-mode settings, populated from environment
// variables. The batch CLIs take flags instead and never call Load.
type Config struct {
	CatalogPath     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Rebuild behavior.
	RebuildDebounce time.Duration
	RefreshInterval time.Duration
	IconSizePx      int
	RenderCacheSize int

	// Kafka live feed configuration.
	KafkaBrokers []string
	KafkaEnabled bool
	KafkaTopic   string
	KafkaGroupID string
}

const (
	minIconSizePx = 16
	maxIconSizePx = 1024
)

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	rebuildDebounce, err := parseDurationEnv("REBUILD_DEBOUNCE", "500ms")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDurationEnv("KML_REFRESH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	iconSize, err := parseIconSize()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RebuildDebounce: rebuildDebounce,
		RefreshInterval: refreshInterval,
		IconSizePx:      iconSize,
		RenderCacheSize: parseRenderCacheSize(),
		KafkaBrokers:    brokers,
		KafkaEnabled:    kafkaEnabled,
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "raw-ndk-records"),
		KafkaGroupID:    envOrDefault("KAFKA_GROUP_ID", "quake-data-kml"),
	}

	if cfg.CatalogPath == "" {
		return nil, errors.New("CATALOG_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when the feed is enabled")
	}

	return cfg, nil
}

func parseIconSize() (int, error) {
	s := envOrDefault("ICON_SIZE_PX", "200")
	n, err := strconv.Atoi(s)
	if err != nil || n < minIconSizePx || n > maxIconSizePx {
		return 0, fmt.Errorf("invalid ICON_SIZE_PX %q: want %d-%d", s, minIconSizePx, maxIconSizePx)
	}
	return n, nil
}

func parseRenderCacheSize() int {
	if s := os.Getenv("RENDER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
