package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache middleware. Caching is
// only worthwhile on the read-heavy catalog and slot listing routes, so
// only the configured methods are considered.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from the environment with safe
// defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(strOr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strOr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       strOr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: intOr("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			m[p] = true
		}
	}
	return m
}
