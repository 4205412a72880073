package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the Redis response cache and the seat
// map cache.  When Enabled is false or no Redis client is configured,
// both caches are bypassed.
//
// Methods lists the HTTP methods whose responses are cached (GET by
// default).  TTL bounds the lifetime of cached catalog responses, while
// SeatMapTTL bounds cached seat maps; seat maps are also invalidated on
// every booking transition so the TTL only matters for missed
// invalidations.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	SeatMapTTL   time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		SeatMapTTL:   envDur("CACHE_SEATMAP_TTL", 15*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cinema"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
