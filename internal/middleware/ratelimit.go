package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/navpurush/hostelms/internal/config"
)

// tokenBucketScript refills and takes atomically so concurrent requests
// cannot double-spend tokens.
//
// KEYS[1] = bucket key
// ARGV[1] = capacity, ARGV[2] = refill tokens per second (float)
// ARGV[3] = now in milliseconds, ARGV[4] = requested tokens
// ARGV[5] = bucket TTL in milliseconds
var tokenBucketScript = redis.NewScript(`
local key      = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate     = tonumber(ARGV[2])
local now_ms   = tonumber(ARGV[3])
local want     = tonumber(ARGV[4])
local ttl_ms   = tonumber(ARGV[5])

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts     = tonumber(data[2])
if tokens == nil then
  tokens = capacity
  ts = now_ms
end

local elapsed = math.max(0, now_ms - ts) / 1000.0
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= want then
  tokens = tokens - want
  allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, ttl_ms)

local retry_ms = 0
if allowed == 0 then
  retry_ms = math.ceil(((want - tokens) / rate) * 1000)
end
return {allowed, retry_ms}
`)

// currentAdminID reads the identity set by JWTAuth; zero means anonymous.
func currentAdminID(c echo.Context) int64 {
	v := c.Get("admin_id")
	if v == nil {
		return 0
	}
	id, _ := v.(int64)
	return id
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		return fmt.Sprintf("%s:ip:%s", cfg.Prefix, c.RealIP())
	case "admin":
		if id := currentAdminID(c); id > 0 {
			return fmt.Sprintf("%s:admin:%d", cfg.Prefix, id)
		}
		return fmt.Sprintf("%s:ip:%s", cfg.Prefix, c.RealIP())
	default: // ip_route
		return fmt.Sprintf("%s:ip:%s:route:%s", cfg.Prefix, c.RealIP(), c.Path())
	}
}

// NewTokenBucket rate limits with a Redis token bucket. The login route runs
// behind it so credential guessing stays slow. A nil client or disabled
// config degrades to a pass-through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	rate := float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds()
	ttlMs := cfg.TTL.Milliseconds()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := buildRateKey(cfg, c)
			nowMs := time.Now().UnixMilli()

			res, err := tokenBucketScript.Run(ctx, rdb,
				[]string{key}, cfg.Capacity, rate, nowMs, 1, ttlMs).Int64Slice()
			if err != nil || len(res) != 2 {
				// Limiter outage never blocks traffic.
				return next(c)
			}
			if res[0] != 1 {
				retrySec := res[1] / 1000
				if retrySec < 1 {
					retrySec = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retrySec))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "too many requests, slow down",
				})
			}
			return next(c)
		}
	}
}
