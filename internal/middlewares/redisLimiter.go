package middlewares

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_us = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_us = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_us')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_us
end

if interval_us > 0 then
    local elapsed = math.max(0, now_us - last_refill)
    local intervals = math.floor(elapsed / interval_us)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals)
        last_refill = last_refill + (intervals * interval_us)
    end
end

local allowed = 0
local retry_after_us = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_us = math.max(0, interval_us - (now_us - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_us', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, retry_after_us }
`)

// RedisLimiter is a token bucket shared by every instance through Redis.
type RedisLimiter struct {
	rdb      redis.Scripter
	prefix   string
	capacity int
	interval time.Duration
	ttl      time.Duration
}

// NewRedisLimiter refills one token every 1/rps seconds up to burst. The
// bucket works in microseconds, so rates above a million per second are
// capped there.
func NewRedisLimiter(rdb redis.Scripter, prefix string, rps float64, burst int) *RedisLimiter {
	interval := time.Second
	if rps > 0 {
		interval = time.Duration(float64(time.Second) / rps)
	}
	if interval < time.Microsecond {
		interval = time.Microsecond
	}
	ttl := time.Duration(burst+1) * interval
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, capacity: burst, interval: interval, ttl: ttl}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := tokenBucketScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key},
		time.Now().UnixMicro(),
		l.capacity,
		l.interval.Microseconds(),
		int64(l.ttl/time.Second),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit script result: %v", res)
	}
	return res[0] == 1, time.Duration(res[1]) * time.Microsecond, nil
}
