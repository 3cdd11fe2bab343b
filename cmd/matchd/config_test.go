package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "STOCK", cfg.Symbol)
	assert.Equal(t, "-", cfg.Input)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, int64(4096), cfg.RingBufferSize)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchd.yaml")
	content := []byte("symbol: BTC-USD\nlog_format: text\nlog_level: debug\nring_buffer_size: 1024\nshutdown_timeout: 2s\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "BTC-USD", cfg.Symbol)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int64(1024), cfg.RingBufferSize)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "-", cfg.Input)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("MATCHD_SYMBOL", "ETH-USD")
	t.Setenv("MATCHD_METRICS_ADDR", ":9100")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", cfg.Symbol)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"MATCHD_RING_BUFFER_SIZE": "1000",
		"MATCHD_LOG_FORMAT":       "xml",
		"MATCHD_LOG_LEVEL":        "loud",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := LoadConfig("")
			assert.ErrorIs(t, err, errInvalidConfig)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
