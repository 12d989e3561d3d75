package security

import (
	"context"
	"fmt"
	"time"

	"candidate-tracker-backend/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// UploadLimiter caps resume uploads per client IP (per minute) and per
// uploader (per day) using a Redis sorted-set sliding window.
type UploadLimiter struct {
	maxPerMinute int
	maxPerDay    int
	client       func() *goredis.Client
}

// KEYS[1] = window key
// ARGV[1] = max count, ARGV[2] = window seconds, ARGV[3] = now (unix)
// Returns 1 if the upload is admitted, 0 otherwise.
const uploadWindowScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
redis.call('EXPIRE', key, window)
return 1
`

// NewUploadLimiter creates an upload limiter on the shared redis client.
// Defaults: 10 uploads/min per IP, 50 uploads/day per user.
func NewUploadLimiter(perMin, perDay int) *UploadLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if perDay <= 0 {
		perDay = 50
	}
	return &UploadLimiter{
		maxPerMinute: perMin,
		maxPerDay:    perDay,
		client:       redis.Client,
	}
}

// AllowUpload reports whether another upload is admitted and, if not, how many
// seconds the client should wait. When redis is missing or failing the
// limiter fails open and returns the error for the caller to log.
func (ul *UploadLimiter) AllowUpload(ctx context.Context, ip, userID string) (bool, int, error) {
	client := ul.client()
	if client == nil {
		return true, 0, fmt.Errorf("upload limiter unavailable: redis not connected")
	}

	now := time.Now().Unix()

	if ip != "" {
		allowed, err := ul.admit(ctx, client, "ratelimit:resume:ip:"+ip, ul.maxPerMinute, 60, now)
		if err != nil {
			return true, 0, fmt.Errorf("upload limit check failed: %w", err)
		}
		if !allowed {
			return false, 60, nil
		}
	}

	if userID != "" {
		allowed, err := ul.admit(ctx, client, "ratelimit:resume:user:"+userID, ul.maxPerDay, 86400, now)
		if err != nil {
			return true, 0, fmt.Errorf("upload limit check failed: %w", err)
		}
		if !allowed {
			return false, 3600, nil
		}
	}

	return true, 0, nil
}

func (ul *UploadLimiter) admit(ctx context.Context, client *goredis.Client, key string, limit, window int, now int64) (bool, error) {
	result, err := client.Eval(ctx, uploadWindowScript, []string{key}, limit, window, now).Result()
	if err != nil {
		return false, err
	}
	admitted, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type %T from upload window script", result)
	}
	return admitted == 1, nil
}
