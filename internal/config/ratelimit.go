package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig throttles how fast a staff member can write: creating,
// rescheduling, cancelling, restoring, completing or deleting bookings and
// editing the catalog.  Reads and quotes are never limited.  Buckets live
// in Redis when it is reachable so every amenityd instance shares them;
// otherwise each process keeps its own.
type RateLimitConfig struct {
	Enabled bool
	// Capacity is how many writes a desk can fire back to back, e.g. when
	// booking a whole set of gear one item at a time.
	Capacity int
	// RefillTokens are returned to the bucket every RefillInterval.
	RefillTokens   int
	RefillInterval time.Duration
	// TTL drops the bucket of a desk that has gone quiet.  Never shorter
	// than five refill intervals.
	TTL time.Duration
	// KeyStrategy picks who shares a bucket: "ip" (one front desk
	// terminal), "actor" (one staff member across terminals) or
	// "ip_actor_route" (one member on one terminal for one endpoint).
	KeyStrategy string
	Prefix      string
	// Debug logs blocked writes and exposes the bucket in X-RateLimit-Key.
	Debug bool
}

// LoadRateLimitConfig reads RATE_LIMIT_*.  The defaults allow a burst of
// 30 writes and one more every two seconds per staff member and endpoint.
// RATE_LIMIT_BURST and RATE_LIMIT_REFILL_EVERY are shorthands that win over
// the long forms.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_actor_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "amenity:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
		c.Capacity = burst
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		c.RefillTokens, c.RefillInterval = 1, every
	}
	return c.floored()
}

// floored clamps values the token bucket cannot work with.
func (c RateLimitConfig) floored() RateLimitConfig {
	c.Capacity = max(c.Capacity, 1)
	c.RefillTokens = max(c.RefillTokens, 1)
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	c.TTL = max(c.TTL, 5*c.RefillInterval)
	return c
}

// PerSecond is the steady write rate the in-process fallback limiter uses.
func (c RateLimitConfig) PerSecond() float64 {
	return float64(c.RefillTokens) / c.RefillInterval.Seconds()
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
