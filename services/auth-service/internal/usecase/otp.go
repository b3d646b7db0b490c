package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/limiter"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

// OTPUsecase defines the email one-time code login and signup flows.
type OTPUsecase interface {
	// RequestLoginOTP sends a login code when the account exists. The outcome
	// is the same whether or not it does.
	RequestLoginOTP(ctx context.Context, params RequestLoginOTPParams) error
	VerifyLoginOTP(ctx context.Context, params VerifyOTPParams) (*authtypes.Tokens, error)
	RequestSignupOTP(ctx context.Context, params RequestSignupOTPParams) (*SignupRequestResult, error)
	VerifySignupOTP(ctx context.Context, params VerifyOTPParams) (*AuthResult, error)
}

// IssueLimiter throttles code requests per email and purpose.
type IssueLimiter interface {
	Allow(ctx context.Context, email string, purpose model.OTPPurpose) error
}

type RequestLoginOTPParams struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPParams struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,numeric,min=4,max=10"`
}

type RequestSignupOTPParams struct {
	Email       string `json:"email"        validate:"required,email,max=254"`
	Handle      string `json:"handle"       validate:"required,max=150"`
	FirstName   string `json:"first_name"   validate:"max=150"`
	LastName    string `json:"last_name"    validate:"max=150"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Country     string `json:"country"      validate:"omitempty,oneof=UAE UZB"`
	Role        string `json:"role"         validate:"required,oneof=customer company"`
}

// SignupRequestResult describes an accepted signup request.
type SignupRequestResult struct {
	// DeliveryFailed is set when the code was issued but the notifier failed.
	// Requesting again issues a fresh code.
	DeliveryFailed bool
	ExpiresAt      time.Time
}

type otpUsecase struct {
	accountRepo    repository.AccountRepository
	identityRepo   repository.IdentityRepository
	pendingRepo    repository.PendingRegistrationRepository
	otpRepo        repository.OTPCodeRepository
	limiter        IssueLimiter
	notifier       notifier.Notifier
	sessions       SessionIssuer
	validator      *validation.Validator
	clock          clock.Clock
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
}

func NewOTPUsecase(
	accountRepo repository.AccountRepository,
	identityRepo repository.IdentityRepository,
	pendingRepo repository.PendingRegistrationRepository,
	otpRepo repository.OTPCodeRepository,
	issueLimiter IssueLimiter,
	codeNotifier notifier.Notifier,
	sessions SessionIssuer,
	validator *validation.Validator,
	clk clock.Clock,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) OTPUsecase {
	return &otpUsecase{
		accountRepo:    accountRepo,
		identityRepo:   identityRepo,
		pendingRepo:    pendingRepo,
		otpRepo:        otpRepo,
		limiter:        issueLimiter,
		notifier:       codeNotifier,
		sessions:       sessions,
		validator:      validator,
		clock:          clk,
		authServiceCfg: authServiceCfg,
		logger:         logger,
	}
}

func (u *otpUsecase) RequestLoginOTP(ctx context.Context, params RequestLoginOTPParams) error {
	if err := validate(u.validator, params); err != nil {
		return err
	}
	email := model.NormalizeEmail(params.Email)

	// Throttled before the lookup so unknown emails are limited the same way.
	if err := u.allow(ctx, email, model.OTPPurposeLogin); err != nil {
		return err
	}

	account, err := u.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			u.logger.Debug().Str("email", email).Msg("login code requested for unknown email")
			return nil
		}
		return unavailable(err)
	}
	if !account.Active {
		u.logger.Info().Str("user_id", account.ID.Hex()).Msg("login code requested for inactive account")
		return nil
	}

	code, _, err := u.otpRepo.Issue(ctx, email, model.OTPPurposeLogin, repository.IssuePolicy{
		TTL: u.authServiceCfg.OTP.LoginTTL,
	})
	if err != nil {
		return unavailable(err)
	}

	// Delivery runs detached so the response does not depend on whether an
	// email was actually sent.
	go u.deliver(context.WithoutCancel(ctx), email, code, model.OTPPurposeLogin)

	return nil
}

func (u *otpUsecase) VerifyLoginOTP(ctx context.Context, params VerifyOTPParams) (*authtypes.Tokens, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(params.Email)

	if err := u.verifyCode(ctx, email, model.OTPPurposeLogin, params.Code); err != nil {
		return nil, err
	}

	account, err := u.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			u.logger.Error().Str("email", email).Msg("login code verified for an email without an account")
			return nil, fmt.Errorf("%w: account missing after login code verification", ErrUnavailable)
		}
		return nil, unavailable(err)
	}
	if !account.Active {
		u.logger.Info().Str("user_id", account.ID.Hex()).Msg("login code verified for inactive account")
		return nil, ErrInvalidOrExpiredCode
	}

	recordLogin(ctx, u.identityRepo, u.logger, account, model.IdentityProviderEmailOTP)

	return u.sessions.Mint(ctx, account.ID.Hex(), account.Role)
}

func (u *otpUsecase) RequestSignupOTP(ctx context.Context, params RequestSignupOTPParams) (*SignupRequestResult, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(params.Email)

	_, err := u.accountRepo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrAccountAlreadyExists
	case !errors.Is(err, repository.ErrAccountNotFound):
		return nil, unavailable(err)
	}

	if err := u.allow(ctx, email, model.OTPPurposeSignup); err != nil {
		return nil, err
	}

	now := u.clock.Now()
	overwritten, err := u.pendingRepo.Put(ctx, &model.PendingRegistration{
		Email:       email,
		Handle:      params.Handle,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		PhoneNumber: params.PhoneNumber,
		Country:     params.Country,
		Role:        model.Role(params.Role),
		CreatedAt:   now,
		ExpiresAt:   now.Add(u.authServiceCfg.PendingRegistrationTTL),
	})
	if err != nil {
		return nil, unavailable(err)
	}
	if overwritten {
		u.logger.Info().Str("email", email).Msg("pending registration replaced")
	}

	code, record, err := u.otpRepo.Issue(ctx, email, model.OTPPurposeSignup, repository.IssuePolicy{
		TTL: u.authServiceCfg.OTP.SignupTTL,
	})
	if err != nil {
		return nil, unavailable(err)
	}

	result := &SignupRequestResult{ExpiresAt: record.ExpiresAt}
	if !u.deliver(ctx, email, code, model.OTPPurposeSignup) {
		result.DeliveryFailed = true
	}

	return result, nil
}

func (u *otpUsecase) VerifySignupOTP(ctx context.Context, params VerifyOTPParams) (*AuthResult, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(params.Email)

	if err := u.verifyCode(ctx, email, model.OTPPurposeSignup, params.Code); err != nil {
		return nil, err
	}

	pending, err := u.pendingRepo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrPendingRegistrationNotFound) {
			return nil, ErrRegistrationExpired
		}
		return nil, unavailable(err)
	}

	account, err := u.accountRepo.CreateAccount(ctx, pending.NewAccount())
	if err != nil {
		if errors.Is(err, repository.ErrAccountConflict) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, unavailable(err)
	}

	if err := u.pendingRepo.Consume(ctx, email); err != nil {
		// The account exists; a leftover registration simply expires.
		u.logger.Warn().Err(err).Str("email", email).Msg("failed to consume pending registration")
	}

	recordLogin(ctx, u.identityRepo, u.logger, account, model.IdentityProviderEmailOTP)

	tokens, err := u.sessions.Mint(ctx, account.ID.Hex(), account.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Tokens: tokens}, nil
}

func (u *otpUsecase) allow(ctx context.Context, email string, purpose model.OTPPurpose) error {
	if u.limiter == nil {
		return nil
	}

	err := u.limiter.Allow(ctx, email, purpose)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiter.ErrRateLimited):
		u.logger.Info().Str("email", email).Str("purpose", purpose.String()).Msg("code request throttled")
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	default:
		return unavailable(err)
	}
}

// verifyCode consumes the code and collapses every rejection into
// ErrInvalidOrExpiredCode. The specific cause is only logged.
func (u *otpUsecase) verifyCode(ctx context.Context, email string, purpose model.OTPPurpose, code string) error {
	_, err := u.otpRepo.Verify(ctx, email, purpose, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCodeInvalid),
		errors.Is(err, repository.ErrCodeExpired),
		errors.Is(err, repository.ErrCodeAlreadyUsed):
		u.logger.Info().
			Str("email", email).
			Str("purpose", purpose.String()).
			Str("cause", err.Error()).
			Msg("one-time code rejected")
		return ErrInvalidOrExpiredCode
	default:
		return unavailable(err)
	}
}

// deliver hands the code to the notifier and reports whether it succeeded.
// Failures are never retried; the user can request a new code.
func (u *otpUsecase) deliver(ctx context.Context, email, code string, purpose model.OTPPurpose) bool {
	if err := u.notifier.Send(ctx, email, code, purpose); err != nil {
		u.logger.Warn().Err(err).
			Str("email", email).
			Str("purpose", purpose.String()).
			Msg("failed to deliver one-time code")
		return false
	}

	return true
}
