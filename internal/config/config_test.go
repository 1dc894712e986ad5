package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("RP_STR", "value")
	t.Setenv("RP_INT", "42")
	t.Setenv("RP_BAD_INT", "x")
	t.Setenv("RP_BOOL", "true")
	t.Setenv("RP_DUR", "150ms")
	t.Setenv("RP_LIST", "a, b,,c")

	assert.Equal(t, "value", GetEnv("RP_STR", "d"))
	assert.Equal(t, "d", GetEnv("RP_MISSING", "d"))
	assert.Equal(t, 42, GetIntEnv("RP_INT", 1))
	assert.Equal(t, 1, GetIntEnv("RP_BAD_INT", 1))
	assert.True(t, GetBoolEnv("RP_BOOL", false))
	assert.Equal(t, 150*time.Millisecond, GetDurationEnv("RP_DUR", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, GetListEnv("RP_LIST", nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RAIL_MAX_RETRIES", "")
	t.Setenv("WALLET_TIMEOUT", "3s")

	cfg := Load()
	assert.Equal(t, 0, cfg.RailPolicy.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.WalletPolicy.Timeout)
	assert.Equal(t, 3, cfg.PersistencePolicy.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.RailPolicy.Timeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.True(t, IsProduction())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.KafkaBrokers)
}
