package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// CacheConfig defines settings for the read-through cache in front of the
// catalog and pricing endpoints.  When Enabled is false or no Redis client
// is configured, caching is disabled.  Paths lists the route prefixes whose
// GET responses may be cached; reservation listings are never cached because
// availability must always be read fresh.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    Paths        []string
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      getenv("CACHE_ENABLED", "true") == "true",
        Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
        Paths:        parseList(getenv("CACHE_PATHS", "/v1/items,/v1/pricing")),
        TTL:          parseDur(getenv("CACHE_TTL", "30s")),
        KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       getenv("CACHE_PREFIX", "amenity:cache"),
        MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
    }
}

// Cacheable reports whether a request for path may be served from cache.
func (c CacheConfig) Cacheable(method, path string) bool {
    return c.Enabled && c.Methods[strings.ToUpper(method)] && c.Covers(path)
}

// Covers reports whether path falls under one of the cached prefixes.
// Writes to a covered path invalidate the cache.
func (c CacheConfig) Covers(path string) bool {
    for _, p := range c.Paths {
        if strings.HasPrefix(path, p) {
            return true
        }
    }
    return false
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range parseList(s) {
        m[strings.ToUpper(p)] = true
    }
    return m
}

func parseList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
