package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDRESS", "KAFKA_BROKERS", "ENFORCE_CAPACITY", "OUTBOX_BATCH_SIZE", "EVENTS_TOPIC", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, "activity.participants", cfg.EventsTopic)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnforceCapacity)
	assert.False(t, cfg.EventsEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("ENFORCE_CAPACITY", "true")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
	assert.True(t, cfg.EnforceCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
}

func TestLoadReadsDotenvWithoutOverriding(t *testing.T) {
	t.Setenv("EVENTS_TOPIC", "")
	require.NoError(t, os.Unsetenv("EVENTS_TOPIC"))
	t.Setenv("LOG_LEVEL", "warn")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("EVENTS_TOPIC=roster.changes\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "roster.changes", cfg.EventsTopic)
	assert.Equal(t, "warn", cfg.LogLevel, "process environment wins over .env")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("OUTBOX_BATCH_SIZE", "0")
	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)

	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	_, err = Load(missingEnvFile(t))
	assert.Error(t, err)
}
