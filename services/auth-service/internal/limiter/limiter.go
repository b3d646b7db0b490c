package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
)

var (
	ErrRateLimited        = errors.New("otp issuance rate limited")
	ErrLimiterUnavailable = errors.New("otp limiter unavailable")
)

// RateLimitError is returned when issuance is throttled. It matches
// ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// RetryAfter extracts the wait hint from a rate limit error, or zero.
func RetryAfter(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

// allowIssueLua enforces a minimum gap between issues and a fixed window cap.
// KEYS[1] = resend gate key
// KEYS[2] = window counter key
// ARGV[1] = resend interval (ms), 0 disables
// ARGV[2] = window length (ms)
// ARGV[3] = max issues per window, 0 disables
//
// Returns {allowed, retry_after_ms}.
var allowIssueLua = redis.NewScript(`
local gate = redis.call('PTTL', KEYS[1])
if gate > 0 then
  return {0, gate}
end
local max = tonumber(ARGV[3])
if max > 0 then
  local count = redis.call('INCR', KEYS[2])
  if count == 1 then
    redis.call('PEXPIRE', KEYS[2], ARGV[2])
  end
  if count > max then
    local wait = redis.call('PTTL', KEYS[2])
    if wait < 0 then wait = tonumber(ARGV[2]) end
    return {0, wait}
  end
end
if tonumber(ARGV[1]) > 0 then
  redis.call('SET', KEYS[1], '1', 'PX', ARGV[1])
end
return {1, 0}
`)

type Config struct {
	ResendInterval     time.Duration
	MaxIssuesPerWindow int
	Window             time.Duration
}

// IssueLimiter throttles one-time code issuance per email and purpose.
type IssueLimiter struct {
	redis  redis.UniversalClient
	config Config
	prefix string
}

func NewIssueLimiter(redisClient redis.UniversalClient, cfg Config) *IssueLimiter {
	return &IssueLimiter{
		redis:  redisClient,
		config: cfg,
		prefix: "otplim",
	}
}

func (l *IssueLimiter) Allow(ctx context.Context, email string, purpose model.OTPPurpose) error {
	base := l.prefix + ":" + purpose.String() + ":" + email

	result, err := allowIssueLua.Run(ctx, l.redis,
		[]string{base + ":gate", base + ":window"},
		l.config.ResendInterval.Milliseconds(),
		l.config.Window.Milliseconds(),
		l.config.MaxIssuesPerWindow,
	).Int64Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if len(result) != 2 {
		return fmt.Errorf("%w: unexpected lua result", ErrLimiterUnavailable)
	}

	if result[0] == 1 {
		return nil
	}

	return &RateLimitError{RetryAfter: time.Duration(result[1]) * time.Millisecond}
}
