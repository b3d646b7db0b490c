package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
)

func newTestLimiter(t *testing.T, cfg Config) (*IssueLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewIssueLimiter(rdb, cfg), mr
}

func TestIssueLimiter_ResendInterval(t *testing.T) {
	l, mr := newTestLimiter(t, Config{ResendInterval: time.Minute, Window: time.Hour, MaxIssuesPerWindow: 5})
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "a@x.com", model.OTPPurposeLogin))

	err := l.Allow(ctx, "a@x.com", model.OTPPurposeLogin)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Greater(t, RetryAfter(err), time.Duration(0))
	assert.LessOrEqual(t, RetryAfter(err), time.Minute)

	// Other purposes and emails have their own budget.
	require.NoError(t, l.Allow(ctx, "a@x.com", model.OTPPurposeSignup))
	require.NoError(t, l.Allow(ctx, "b@x.com", model.OTPPurposeLogin))

	mr.FastForward(time.Minute)
	require.NoError(t, l.Allow(ctx, "a@x.com", model.OTPPurposeLogin))
}

func TestIssueLimiter_WindowCap(t *testing.T) {
	l, mr := newTestLimiter(t, Config{Window: time.Hour, MaxIssuesPerWindow: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "a@x.com", model.OTPPurposeLogin))
	}

	err := l.Allow(ctx, "a@x.com", model.OTPPurposeLogin)
	require.ErrorIs(t, err, ErrRateLimited)

	mr.FastForward(time.Hour)
	require.NoError(t, l.Allow(ctx, "a@x.com", model.OTPPurposeLogin))
}

func TestIssueLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, Config{})
	for i := 0; i < 20; i++ {
		require.NoError(t, l.Allow(context.Background(), "a@x.com", model.OTPPurposeLogin))
	}
}

func TestIssueLimiter_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{ResendInterval: time.Minute})
	mr.Close()

	err := l.Allow(context.Background(), "a@x.com", model.OTPPurposeLogin)
	require.ErrorIs(t, err, ErrLimiterUnavailable)
	assert.False(t, errors.Is(err, ErrRateLimited))
}
