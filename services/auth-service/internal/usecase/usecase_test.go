package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/mocks"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/tezrent-api/shared/auth"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

type fixture struct {
	cfg        *config.AuthServiceConfig
	clock      *clock.Mock
	accounts   *mocks.MockAccountRepository
	identities *mocks.MockIdentityRepository
	pending    *mocks.MockPendingRegistrationRepository
	sessions   *mocks.MockSessionRepository
	notifier   *mocks.MockNotifier
	limiter    *mocks.MockIssueLimiter
	ledger     repository.OTPCodeRepository

	issuer  usecase.SessionIssuer
	auth    usecase.AuthUsecase
	otp     usecase.OTPUsecase
	account usecase.AccountUsecase
}

func testConfig() *config.AuthServiceConfig {
	return &config.AuthServiceConfig{
		Environment:            "test",
		AppName:                "TezRent",
		PendingRegistrationTTL: 30 * time.Minute,
		Token: config.TokenConfig{
			Issuer:                "tezrent",
			AccessTokenSecret:     "access-secret",
			AccessTokenExpiresIn:  15 * time.Minute,
			RefreshTokenSecret:    "refresh-secret",
			RefreshTokenExpiresIn: 24 * time.Hour,
		},
		OTP: config.OTPConfig{
			Digits:    6,
			LoginTTL:  5 * time.Minute,
			SignupTTL: 10 * time.Minute,
		},
	}
}

func newFixture(t *testing.T, mutate ...func(*config.AuthServiceConfig)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := clock.NewMock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	generator, err := security.NewDigitCodeGenerator(cfg.OTP.Digits)
	require.NoError(t, err)

	logger := zerolog.Nop()
	validator := validation.New()

	f := &fixture{
		cfg:        cfg,
		clock:      clk,
		accounts:   mocks.NewMockAccountRepository(),
		identities: mocks.NewMockIdentityRepository(),
		pending:    mocks.NewMockPendingRegistrationRepository(clk),
		sessions:   mocks.NewMockSessionRepository(),
		notifier:   mocks.NewMockNotifier(),
		limiter:    &mocks.MockIssueLimiter{},
		ledger:     repository.NewOTPCodeRedisRepository(rdb, clk, generator, "otp", time.Hour),
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer, auth.WithTimeFunc(clk.Now))
	f.issuer = usecase.NewSessionIssuer(f.sessions, jwtAuth, cfg.Token, clk)
	f.auth = usecase.NewAuthUsecase(f.accounts, f.identities, f.pending, f.issuer, validator, &logger)
	f.otp = usecase.NewOTPUsecase(
		f.accounts, f.identities, f.pending, f.ledger, f.limiter, f.notifier,
		f.issuer, validator, clk, cfg, &logger,
	)
	f.account = usecase.NewAccountUsecase(f.accounts, f.identities, validator, &logger)

	return f
}

// waitForCode waits for the notifier to receive a code for email.
func (f *fixture) waitForCode(t *testing.T, email string, purpose model.OTPPurpose) string {
	t.Helper()

	var code string
	require.Eventually(t, func() bool {
		sent, ok := f.notifier.Last(email)
		if ok && sent.Purpose == purpose {
			code = sent.Code
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)

	return code
}

func (f *fixture) seedAccount(email string, active bool) *model.Account {
	return f.accounts.Seed(&model.Account{
		Email:  email,
		Handle: email,
		Role:   model.RoleCustomer,
		Active: active,
	})
}

func ctx() context.Context {
	return context.Background()
}
