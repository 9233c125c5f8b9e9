package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, 20.0, cfg.Matching.RadiusKm)
	assert.Equal(t, 5, cfg.Places.Limit)
	assert.Equal(t, 500*time.Millisecond, cfg.Places.Debounce)
	assert.Equal(t, "ma", cfg.Places.Region)
	assert.Equal(t, 10*time.Minute, cfg.Location.MaxAge)
	assert.Equal(t, EventsLog, cfg.Events.Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADILE_HTTP_ADDR", ":9090")
	t.Setenv("ADILE_LEDGER_BACKEND", "Redis")
	t.Setenv("ADILE_REDIS_ADDR", "cache:6379")
	t.Setenv("ADILE_REDIS_DB", "3")
	t.Setenv("ADILE_MATCHING_RADIUS_KM", "7.5")
	t.Setenv("ADILE_PLACES_TIMEOUT", "1500ms")
	t.Setenv("ADILE_EVENTS_BACKEND", "kafka")
	t.Setenv("ADILE_EVENTS_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, BackendRedis, cfg.Ledger.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 7.5, cfg.Matching.RadiusKm)
	assert.Equal(t, 1500*time.Millisecond, cfg.Places.Timeout)
	assert.Equal(t, EventsKafka, cfg.Events.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoad_InvalidValuesAreJoined(t *testing.T) {
	t.Setenv("ADILE_LEDGER_BACKEND", "cassandra")
	t.Setenv("ADILE_MATCHING_RADIUS_KM", "-1")
	t.Setenv("ADILE_EVENTS_BACKEND", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ledger.backend "cassandra"`)
	assert.Contains(t, err.Error(), "matching.radius_km must be positive")
	assert.Contains(t, err.Error(), `unknown events.backend "carrier-pigeon"`)
}

func TestValidate_BackendRequirements(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Ledger.Backend = BackendPostgres
	cfg.DB.DSN = ""
	assert.ErrorContains(t, cfg.Validate(), "db.dsn is required")

	cfg.Ledger.Backend = BackendMemory
	cfg.Events.Backend = EventsAMQP
	cfg.Events.AMQPURL = ""
	assert.ErrorContains(t, cfg.Validate(), "events.amqp_url is required")
}
