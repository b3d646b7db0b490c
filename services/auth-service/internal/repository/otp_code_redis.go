package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
)

// issueOTPLua replaces the record for (email, purpose) in one step, so the
// previous code stops matching the moment the new one exists.
// KEYS[1] = record key
// ARGV[1] = code hash
// ARGV[2] = issued at (unix ms)
// ARGV[3] = expires at (unix ms)
// ARGV[4] = key ttl (ms)
// ARGV[5] = email
// ARGV[6] = purpose
var issueOTPLua = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1],
  'email', ARGV[5],
  'purpose', ARGV[6],
  'code_hash', ARGV[1],
  'issued_at', ARGV[2],
  'expires_at', ARGV[3],
  'consumed', '0')
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// verifyOTPLua atomically checks and consumes the record.
// KEYS[1] = record key
// ARGV[1] = provided code hash
// ARGV[2] = now (unix ms)
//
// Returns the record as a flat field/value list on success, or one of the
// errors "code_invalid", "code_already_used", "code_expired".
var verifyOTPLua = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'code_hash', 'consumed', 'expires_at')
if not rec[1] or rec[1] ~= ARGV[1] then
  return {err='code_invalid'}
end
if rec[2] == '1' then
  return {err='code_already_used'}
end
if tonumber(ARGV[2]) >= tonumber(rec[3]) then
  return {err='code_expired'}
end
redis.call('HSET', KEYS[1], 'consumed', '1', 'consumed_at', ARGV[2])
return redis.call('HGETALL', KEYS[1])
`)

type otpCodeRedisRepository struct {
	redis     redis.UniversalClient
	clock     clock.Clock
	generator security.CodeGenerator
	prefix    string
	retention time.Duration
}

// NewOTPCodeRedisRepository creates a Redis backed ledger keeping one hash per
// (purpose, email). Keys outlive the code's expiry by retention so that replays
// still report the code as used.
func NewOTPCodeRedisRepository(
	redisClient redis.UniversalClient,
	clk clock.Clock,
	generator security.CodeGenerator,
	prefix string,
	retention time.Duration,
) OTPCodeRepository {
	if prefix == "" {
		prefix = "otp"
	}

	return &otpCodeRedisRepository{
		redis:     redisClient,
		clock:     clk,
		generator: generator,
		prefix:    prefix,
		retention: retention,
	}
}

func (r *otpCodeRedisRepository) key(email string, purpose model.OTPPurpose) string {
	return r.prefix + ":" + purpose.String() + ":" + email
}

func (r *otpCodeRedisRepository) Issue(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	policy IssuePolicy,
) (string, *model.OTPCode, error) {
	if err := policy.check(purpose); err != nil {
		return "", nil, err
	}

	code, err := r.generator.Generate()
	if err != nil {
		return "", nil, err
	}

	now := r.clock.Now()
	record := &model.OTPCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  security.HashSecret(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(policy.TTL),
	}

	keyTTL := policy.TTL + r.retention
	err = issueOTPLua.Run(ctx, r.redis,
		[]string{r.key(email, purpose)},
		record.CodeHash,
		record.IssuedAt.UnixMilli(),
		record.ExpiresAt.UnixMilli(),
		keyTTL.Milliseconds(),
		email,
		purpose.String(),
	).Err()
	if err != nil {
		return "", nil, fmt.Errorf("otp ledger: %w", err)
	}

	return code, record, nil
}

func (r *otpCodeRedisRepository) Verify(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	code string,
) (*model.OTPCode, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	codeHash := security.HashSecret(code)
	result, err := verifyOTPLua.Run(ctx, r.redis,
		[]string{r.key(email, purpose)},
		codeHash,
		r.clock.Now().UnixMilli(),
	).StringSlice()
	if err != nil {
		switch err.Error() {
		case "code_invalid":
			return nil, ErrCodeInvalid
		case "code_already_used":
			return nil, ErrCodeAlreadyUsed
		case "code_expired":
			return nil, ErrCodeExpired
		default:
			return nil, fmt.Errorf("otp ledger: %w", err)
		}
	}

	record, err := decodeOTPHash(pairsToMap(result))
	if err != nil {
		return nil, err
	}
	// Lua string equality is not constant time.
	if !security.EqualHashes(record.CodeHash, codeHash) {
		return nil, ErrCodeInvalid
	}

	return record, nil
}

func (r *otpCodeRedisRepository) Latest(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
) (*model.OTPCode, error) {
	fields, err := r.redis.HGetAll(ctx, r.key(email, purpose)).Result()
	if err != nil {
		return nil, fmt.Errorf("otp ledger: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrOTPCodeNotFound
	}

	return decodeOTPHash(fields)
}

func pairsToMap(pairs []string) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return fields
}

func decodeOTPHash(fields map[string]string) (*model.OTPCode, error) {
	purpose, err := model.ParseOTPPurpose(fields["purpose"])
	if err != nil {
		return nil, err
	}

	issuedAt, err := parseUnixMilli(fields["issued_at"])
	if err != nil {
		return nil, fmt.Errorf("otp ledger: bad issued_at: %w", err)
	}
	expiresAt, err := parseUnixMilli(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("otp ledger: bad expires_at: %w", err)
	}

	record := &model.OTPCode{
		Email:     fields["email"],
		Purpose:   purpose,
		CodeHash:  fields["code_hash"],
		Consumed:  fields["consumed"] == "1",
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	if raw, ok := fields["consumed_at"]; ok {
		consumedAt, err := parseUnixMilli(raw)
		if err != nil {
			return nil, fmt.Errorf("otp ledger: bad consumed_at: %w", err)
		}
		record.ConsumedAt = &consumedAt
	}

	return record, nil
}

func parseUnixMilli(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
