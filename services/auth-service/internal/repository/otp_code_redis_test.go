package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
)

// sequenceGenerator hands out the given codes in order, repeating the last one.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
}

func (g *sequenceGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, nil
}

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRedisLedger(t *testing.T, codes ...string) (OTPCodeRepository, *clock.Mock, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := clock.NewMock(testEpoch)
	gen := &sequenceGenerator{codes: codes}

	return NewOTPCodeRedisRepository(rdb, clk, gen, "otp", time.Hour), clk, mr
}

func TestRedisLedger_IssueAndVerify(t *testing.T) {
	ledger, _, mr := newRedisLedger(t, "123456")
	ctx := context.Background()

	code, record, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Equal(t, testEpoch.Add(5*time.Minute), record.ExpiresAt)
	assert.Equal(t, security.HashSecret("123456"), record.CodeHash)

	stored := mr.HGet("otp:login:a@x.com", "code_hash")
	assert.NotEqual(t, "123456", stored, "plain code must not be stored")

	verified, err := ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.NoError(t, err)
	assert.True(t, verified.Consumed)
	require.NotNil(t, verified.ConsumedAt)
	assert.Equal(t, model.OTPPurposeLogin, verified.Purpose)
}

func TestRedisLedger_SingleUse(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.NoError(t, err)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestRedisLedger_Expiry(t *testing.T) {
	ledger, clk, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestRedisLedger_ConsumedReportedBeforeExpired(t *testing.T) {
	ledger, clk, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)
	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.ErrorIs(t, err, ErrCodeAlreadyUsed)
}

func TestRedisLedger_ReissueSupersedes(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "111111", "222222")
	ctx := context.Background()
	policy := IssuePolicy{TTL: 5 * time.Minute}

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, policy)
	require.NoError(t, err)
	_, _, err = ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, policy)
	require.NoError(t, err)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "111111")
	require.ErrorIs(t, err, ErrCodeInvalid)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "222222")
	require.NoError(t, err)
}

func TestRedisLedger_ScopedToEmailAndPurpose(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	_, err = ledger.Verify(ctx, "b@x.com", model.OTPPurposeLogin, "123456")
	require.ErrorIs(t, err, ErrCodeInvalid)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeSignup, "123456")
	require.ErrorIs(t, err, ErrCodeInvalid)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.NoError(t, err)
}

func TestRedisLedger_UnknownOrWrongCode(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, err := ledger.Verify(ctx, "nobody@x.com", model.OTPPurposeLogin, "123456")
	require.ErrorIs(t, err, ErrCodeInvalid)

	_, _, err = ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "654321")
	require.ErrorIs(t, err, ErrCodeInvalid)

	// A wrong guess does not burn the live code.
	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
	require.NoError(t, err)
}

func TestRedisLedger_ConcurrentVerify(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		used      atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Verify(ctx, "a@x.com", model.OTPPurposeLogin, "123456")
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, ErrCodeAlreadyUsed):
				used.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), used.Load())
}

func TestRedisLedger_Latest(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, err := ledger.Latest(ctx, "a@x.com", model.OTPPurposeSignup)
	require.ErrorIs(t, err, ErrOTPCodeNotFound)

	_, _, err = ledger.Issue(ctx, "a@x.com", model.OTPPurposeSignup, IssuePolicy{TTL: 10 * time.Minute})
	require.NoError(t, err)

	latest, err := ledger.Latest(ctx, "a@x.com", model.OTPPurposeSignup)
	require.NoError(t, err)
	assert.False(t, latest.Consumed)
	assert.Equal(t, "a@x.com", latest.Email)
	assert.Equal(t, testEpoch.Add(10*time.Minute), latest.ExpiresAt)
}

func TestRedisLedger_IssueRejections(t *testing.T) {
	ledger, _, _ := newRedisLedger(t, "123456")
	ctx := context.Background()

	_, _, err := ledger.Issue(ctx, "a@x.com", model.OTPPurpose(0), IssuePolicy{TTL: time.Minute})
	require.ErrorIs(t, err, ErrInvalidPurpose)

	_, _, err = ledger.Issue(ctx, "a@x.com", model.OTPPurposeLogin, IssuePolicy{})
	require.ErrorIs(t, err, ErrInvalidIssuePolicy)

	_, err = ledger.Verify(ctx, "a@x.com", model.OTPPurpose(9), "123456")
	require.ErrorIs(t, err, ErrInvalidPurpose)
}

func TestRedisLedger_KeyRetention(t *testing.T) {
	ledger, _, mr := newRedisLedger(t, "123456")

	_, _, err := ledger.Issue(context.Background(), "a@x.com", model.OTPPurposeLogin, IssuePolicy{TTL: 5 * time.Minute})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute+time.Hour, mr.TTL("otp:login:a@x.com"))
}
