package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpersFallBackToDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-a-number")
	t.Setenv("CFG_TEST_DUR", "5m")
	t.Setenv("CFG_TEST_BOOL", "off")

	assert.Equal(t, 7, envInt("CFG_TEST_INT", 7))
	assert.Equal(t, 5*time.Minute, envDur("CFG_TEST_DUR", time.Second))
	assert.False(t, envBool("CFG_TEST_BOOL", true))
	assert.True(t, envBool("CFG_TEST_MISSING", true))
	assert.Equal(t, "x", envStr("CFG_TEST_MISSING", "x"))
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_BOOKING_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.BookingCapacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)

	booking := cfg.WithCapacity(3, "rl-booking")
	assert.Equal(t, 3, booking.Capacity)
	assert.Equal(t, "rl-booking", booking.Prefix)
}

func TestLoadCacheConfigParsesMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "cinema", cfg.Prefix)
}
