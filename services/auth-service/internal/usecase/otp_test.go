package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/limiter"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

func signupParams(email string) usecase.RequestSignupOTPParams {
	return usecase.RequestSignupOTPParams{
		Email:       email,
		Handle:      "newbie",
		FirstName:   "Nodira",
		LastName:    "Karimova",
		PhoneNumber: "+998901234567",
		Country:     "UZB",
		Role:        "company",
	}
}

func TestSignupOTP_EndToEnd(t *testing.T) {
	f := newFixture(t)

	res, err := f.otp.RequestSignupOTP(ctx(), signupParams("New@Example.com"))
	require.NoError(t, err)
	assert.False(t, res.DeliveryFailed)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), res.ExpiresAt)

	sent, ok := f.notifier.Last("new@example.com")
	require.True(t, ok)
	assert.Equal(t, model.OTPPurposeSignup, sent.Purpose)
	assert.Len(t, sent.Code, 6)

	result, err := f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "new@example.com", Code: sent.Code})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", result.Account.Email)
	assert.Equal(t, model.RoleCompany, result.Account.Role)
	assert.Equal(t, "UZB", result.Account.Country)
	assert.True(t, result.Account.Active)
	assert.False(t, result.Account.HasPassword(), "otp signups start without a password")

	claims, err := f.issuer.VerifyAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID.Hex(), claims.UserID)
	assert.Equal(t, "company", claims.Role)

	_, err = f.pending.Get(ctx(), "new@example.com")
	require.ErrorIs(t, err, repository.ErrPendingRegistrationNotFound)

	require.Len(t, f.identities.Logins, 1)
	assert.Equal(t, model.IdentityProviderEmailOTP, f.identities.Logins[0].Provider)

	_, err = f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "new@example.com", Code: sent.Code})
	require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)
	assert.Equal(t, 1, f.accounts.Count())
}

func TestSignupOTP_ExistingAccountIssuesNoCode(t *testing.T) {
	f := newFixture(t)
	f.seedAccount("taken@example.com", true)

	_, err := f.otp.RequestSignupOTP(ctx(), signupParams("taken@example.com"))
	require.ErrorIs(t, err, usecase.ErrAccountAlreadyExists)

	assert.Empty(t, f.notifier.Sent())
	_, err = f.ledger.Latest(ctx(), "taken@example.com", model.OTPPurposeSignup)
	require.ErrorIs(t, err, repository.ErrOTPCodeNotFound)
	_, err = f.pending.Get(ctx(), "taken@example.com")
	require.ErrorIs(t, err, repository.ErrPendingRegistrationNotFound)
}

func TestSignupOTP_RegistrationExpired(t *testing.T) {
	f := newFixture(t, func(cfg *config.AuthServiceConfig) {
		cfg.PendingRegistrationTTL = 5 * time.Minute
	})

	_, err := f.otp.RequestSignupOTP(ctx(), signupParams("late@example.com"))
	require.NoError(t, err)
	sent, _ := f.notifier.Last("late@example.com")

	f.clock.Advance(6 * time.Minute)

	_, err = f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "late@example.com", Code: sent.Code})
	require.ErrorIs(t, err, usecase.ErrRegistrationExpired)
	assert.Zero(t, f.accounts.Count())
}

func TestSignupOTP_AccountCreatedConcurrently(t *testing.T) {
	f := newFixture(t)

	_, err := f.otp.RequestSignupOTP(ctx(), signupParams("race@example.com"))
	require.NoError(t, err)
	sent, _ := f.notifier.Last("race@example.com")

	f.seedAccount("race@example.com", true)

	_, err = f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "race@example.com", Code: sent.Code})
	require.ErrorIs(t, err, usecase.ErrAccountAlreadyExists)

	// The code stays consumed and the pending record is left to expire.
	latest, err := f.ledger.Latest(ctx(), "race@example.com", model.OTPPurposeSignup)
	require.NoError(t, err)
	assert.True(t, latest.Consumed)
	_, err = f.pending.Get(ctx(), "race@example.com")
	require.NoError(t, err)
}

func TestSignupOTP_DeliveryFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.notifier.SendFunc = func(context.Context, string, string, model.OTPPurpose) error {
		return errors.New("smtp down")
	}

	res, err := f.otp.RequestSignupOTP(ctx(), signupParams("soft@example.com"))
	require.NoError(t, err)
	assert.True(t, res.DeliveryFailed)

	sent, _ := f.notifier.Last("soft@example.com")
	_, err = f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "soft@example.com", Code: sent.Code})
	require.NoError(t, err, "the issued code is valid even if delivery failed")
}

func TestSignupOTP_Validation(t *testing.T) {
	f := newFixture(t)

	params := signupParams("bad")
	params.Role = "staff"
	params.Country = "KAZ"

	_, err := f.otp.RequestSignupOTP(ctx(), params)
	require.ErrorIs(t, err, usecase.ErrValidationFailed)

	var fields validation.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "country")
	assert.Zero(t, f.limiter.Calls, "validation runs before any store access")
}

func TestLoginOTP_EndToEnd(t *testing.T) {
	f := newFixture(t)
	account := f.seedAccount("user@example.com", true)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "USER@example.com"}))
	code := f.waitForCode(t, "user@example.com", model.OTPPurposeLogin)

	tokens, err := f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: code})
	require.NoError(t, err)

	claims, err := f.issuer.VerifyAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID.Hex(), claims.UserID)

	_, err = f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: code})
	require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)
}

func TestLoginOTP_UnknownEmailLooksTheSame(t *testing.T) {
	f := newFixture(t)

	err := f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "ghost@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.limiter.Calls, "unknown emails are throttled too")
	_, err = f.ledger.Latest(ctx(), "ghost@example.com", model.OTPPurposeLogin)
	require.ErrorIs(t, err, repository.ErrOTPCodeNotFound)
	assert.Empty(t, f.notifier.Sent())
}

func TestLoginOTP_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	f.seedAccount("off@example.com", false)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "off@example.com"}))
	_, err := f.ledger.Latest(ctx(), "off@example.com", model.OTPPurposeLogin)
	require.ErrorIs(t, err, repository.ErrOTPCodeNotFound)
}

func TestLoginOTP_RejectionsAreGeneric(t *testing.T) {
	f := newFixture(t)
	f.seedAccount("user@example.com", true)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "user@example.com"}))
	code := f.waitForCode(t, "user@example.com", model.OTPPurposeLogin)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: wrong})
	require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)

	// A signup code can never log in and vice versa.
	_, err = f.otp.VerifySignupOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: code})
	require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)

	f.clock.Advance(5 * time.Minute)
	_, err = f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: code})
	require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)
}

func TestLoginOTP_ReissueInvalidatesPrevious(t *testing.T) {
	f := newFixture(t)
	f.seedAccount("user@example.com", true)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "user@example.com"}))
	first := f.waitForCode(t, "user@example.com", model.OTPPurposeLogin)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "user@example.com"}))
	require.Eventually(t, func() bool { return len(f.notifier.Sent()) == 2 }, time.Second, 5*time.Millisecond)
	second, _ := f.notifier.Last("user@example.com")

	if first != second.Code {
		_, err := f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: first})
		require.ErrorIs(t, err, usecase.ErrInvalidOrExpiredCode)
	}

	_, err := f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "user@example.com", Code: second.Code})
	require.NoError(t, err)
}

func TestLoginOTP_AccountVanishedAfterVerify(t *testing.T) {
	f := newFixture(t)
	f.seedAccount("gone@example.com", true)

	require.NoError(t, f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "gone@example.com"}))
	code := f.waitForCode(t, "gone@example.com", model.OTPPurposeLogin)

	f.accounts.GetAccountByEmailFunc = func(context.Context, string) (*model.Account, error) {
		return nil, repository.ErrAccountNotFound
	}

	_, err := f.otp.VerifyLoginOTP(ctx(), usecase.VerifyOTPParams{Email: "gone@example.com", Code: code})
	require.ErrorIs(t, err, usecase.ErrUnavailable)
}

func TestLoginOTP_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.AllowFunc = func(context.Context, string, model.OTPPurpose) error {
		return &limiter.RateLimitError{RetryAfter: 30 * time.Second}
	}

	err := f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "user@example.com"})
	require.ErrorIs(t, err, usecase.ErrRateLimited)
	assert.Equal(t, 30*time.Second, limiter.RetryAfter(err))
}

func TestLoginOTP_StoreFailureIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.accounts.GetAccountByEmailFunc = func(context.Context, string) (*model.Account, error) {
		return nil, errors.New("connection reset")
	}

	err := f.otp.RequestLoginOTP(ctx(), usecase.RequestLoginOTPParams{Email: "user@example.com"})
	require.ErrorIs(t, err, usecase.ErrUnavailable)
}
