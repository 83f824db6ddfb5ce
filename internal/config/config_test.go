package config

import (
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/amenity-reservation/internal/model"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
    t.Setenv("APP_ENV", "")
    t.Setenv("APP_PORT", "")
    t.Setenv("JWT_SECRET", "")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "APP_ENV")
    assert.Contains(t, err.Error(), "APP_PORT")
    assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("STORE_DRIVER", "")
    t.Setenv("LOCK_TTL", "")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "memory", cfg.StoreDriver)
    assert.Equal(t, 10*time.Second, cfg.LockTTL)
    assert.Equal(t, "logs", cfg.AuditLogDir)
    assert.Equal(t, 2, cfg.Policy.GuestSuiteMinNights)
}

func TestLoadMySQLNeedsCredentials(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_NAME", "")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoadPolicyOverrides(t *testing.T) {
    t.Setenv("TIME_ZONE", "UTC")
    t.Setenv("GUEST_SUITE_MIN_NIGHTS", "3")
    t.Setenv("GUEST_SUITE_WEEKEND_RATE", "140.50")
    t.Setenv("CANCELLATION_WINDOW", "48h")

    p, err := LoadPolicy()
    require.NoError(t, err)
    assert.Equal(t, time.UTC, p.Location)
    assert.Equal(t, 3, p.GuestSuiteMinNights)
    assert.True(t, p.GuestSuiteWeekendRate.Equal(decimal.RequireFromString("140.50")))
    assert.Equal(t, 48*time.Hour, p.CancellationWindow)
}

func TestLoadPolicyRejectsBadValues(t *testing.T) {
    t.Setenv("TIME_ZONE", "Mars/Olympus")
    t.Setenv("SKY_LOUNGE_FLAT_RATE", "cheap")
    t.Setenv("GUEST_SUITE_MIN_NIGHTS", "two")

    _, err := LoadPolicy()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "TIME_ZONE")
    assert.Contains(t, err.Error(), "SKY_LOUNGE_FLAT_RATE")
    assert.Contains(t, err.Error(), "GUEST_SUITE_MIN_NIGHTS")
}

func TestPolicyValidateHours(t *testing.T) {
    p := DefaultPolicy()
    p.SkyLoungeOpenHour = 18
    p.SkyLoungeCloseHour = 10
    assert.Error(t, p.Validate())
}

func TestCancelFeeByType(t *testing.T) {
    p := DefaultPolicy()
    assert.True(t, p.CancelFee(model.GuestSuite).Equal(decimal.NewFromInt(50)))
    assert.True(t, p.CancelFee(model.SkyLounge).Equal(decimal.NewFromInt(75)))
    assert.True(t, p.CancelFee(model.GearShed).IsZero())
}

func TestCacheable(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "true")
    t.Setenv("CACHE_PATHS", "/v1/items")
    c := LoadCacheConfig()
    assert.True(t, c.Cacheable("get", "/v1/items/abc"))
    assert.False(t, c.Cacheable("GET", "/v1/reservations"))
    assert.False(t, c.Cacheable("POST", "/v1/items"))
    assert.True(t, c.Covers("/v1/items"))
}

func TestRateLimitFloors(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    c := LoadRateLimitConfig()
    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, 10*time.Second, c.TTL)
    assert.InDelta(t, 0.5, c.PerSecond(), 1e-9)
}

func TestRateLimitDefaultsAndShorthands(t *testing.T) {
    c := LoadRateLimitConfig()
    assert.Equal(t, 30, c.Capacity)
    assert.InDelta(t, 0.5, c.PerSecond(), 1e-9)
    assert.Equal(t, "amenity:rl", c.Prefix)

    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "4")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "250ms")
    c = LoadRateLimitConfig()
    assert.Equal(t, 5, c.Capacity)
    assert.Equal(t, 1, c.RefillTokens)
    assert.InDelta(t, 4.0, c.PerSecond(), 1e-9)
}

func TestNewRedisClientWithoutAddr(t *testing.T) {
    assert.Nil(t, NewRedisClient(RedisConfig{}))
}
