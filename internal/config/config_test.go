package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogPath = "/data/catalog.ndk"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testCatalogPath, cfg.CatalogPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RebuildDebounce)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 200, cfg.IconSizePx)
	assert.Equal(t, 256, cfg.RenderCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "raw-ndk-records", cfg.KafkaTopic)
	assert.Equal(t, "quake-data-kml", cfg.KafkaGroupID)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REBUILD_DEBOUNCE", "2s")
	t.Setenv("KML_REFRESH_INTERVAL", "5m")
	t.Setenv("ICON_SIZE_PX", "128")
	t.Setenv("RENDER_CACHE_SIZE", "64")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-ndk")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, cfg.RebuildDebounce)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 128, cfg.IconSizePx)
	assert.Equal(t, 64, cfg.RenderCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "custom-ndk", cfg.KafkaTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
}

func TestLoad_MissingCatalogPath(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_PATH")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeRebuildDebounce(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("REBUILD_DEBOUNCE", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REBUILD_DEBOUNCE")
}

func TestLoad_InvalidIconSize(t *testing.T) {
	tests := []struct {
		name string
		size string
	}{
		{"not a number", "huge"},
		{"too small", "8"},
		{"too large", "4096"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CATALOG_PATH", testCatalogPath)
			t.Setenv("ICON_SIZE_PX", tt.size)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "ICON_SIZE_PX")
		})
	}
}

func TestLoad_GarbageRenderCacheSizeFallsBack(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("RENDER_CACHE_SIZE", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.RenderCacheSize)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokersImplyEnabled(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("CATALOG_PATH", testCatalogPath)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
