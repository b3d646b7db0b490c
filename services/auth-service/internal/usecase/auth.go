package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

// AuthUsecase defines the interface for password and token use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error)
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)
	RefreshTokens(ctx context.Context, params RefreshTokenParams) (*authtypes.Tokens, error)
	Logout(ctx context.Context, params RefreshTokenParams) error
}

// LoginParams defines the parameters for password login.
type LoginParams struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterParams defines the parameters for password registration.
type RegisterParams struct {
	Email           string `json:"email"            validate:"required,email,max=254"`
	Handle          string `json:"handle"           validate:"required,max=150"`
	Password        string `json:"password"         validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name"       validate:"max=150"`
	LastName        string `json:"last_name"        validate:"max=150"`
	PhoneNumber     string `json:"phone_number"     validate:"omitempty,max=20"`
	Country         string `json:"country"          validate:"omitempty,oneof=UAE UZB"`
	Role            string `json:"role"             validate:"required,oneof=customer company"`
}

// RefreshTokenParams carries a refresh token.
type RefreshTokenParams struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResult is returned by flows that create an account.
type AuthResult struct {
	Account *model.Account
	Tokens  *authtypes.Tokens
}

type authUsecase struct {
	accountRepo  repository.AccountRepository
	identityRepo repository.IdentityRepository
	pendingRepo  repository.PendingRegistrationRepository
	sessions     SessionIssuer
	validator    *validation.Validator
	logger       *zerolog.Logger
}

func NewAuthUsecase(
	accountRepo repository.AccountRepository,
	identityRepo repository.IdentityRepository,
	pendingRepo repository.PendingRegistrationRepository,
	sessions SessionIssuer,
	validator *validation.Validator,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		accountRepo:  accountRepo,
		identityRepo: identityRepo,
		pendingRepo:  pendingRepo,
		sessions:     sessions,
		validator:    validator,
		logger:       logger,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}

	account, err := u.accountRepo.GetAccountByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			security.VerifyDummyPassword(params.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, unavailable(err)
	}

	if !account.Active || !account.HasPassword() {
		security.VerifyDummyPassword(params.Password)
		return nil, ErrInvalidCredentials
	}

	if ok, err := security.VerifyPassword(params.Password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	recordLogin(ctx, u.identityRepo, u.logger, account, model.IdentityProviderPassword)

	return u.sessions.Mint(ctx, account.ID.Hex(), account.Role)
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		Email:        params.Email,
		Handle:       params.Handle,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PhoneNumber:  params.PhoneNumber,
		Country:      params.Country,
		Role:         model.Role(params.Role),
		PasswordHash: passwordHash,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountConflict) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, unavailable(err)
	}

	// A signup started over OTP for the same email is superseded by this one.
	if err := u.pendingRepo.Consume(ctx, account.Email); err != nil &&
		!errors.Is(err, repository.ErrPendingRegistrationNotFound) {
		u.logger.Warn().Err(err).Str("email", account.Email).Msg("failed to clear pending registration")
	}

	recordLogin(ctx, u.identityRepo, u.logger, account, model.IdentityProviderPassword)

	tokens, err := u.sessions.Mint(ctx, account.ID.Hex(), account.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Tokens: tokens}, nil
}

func (u *authUsecase) RefreshTokens(ctx context.Context, params RefreshTokenParams) (*authtypes.Tokens, error) {
	if err := validate(u.validator, params); err != nil {
		return nil, err
	}

	return u.sessions.Refresh(ctx, params.RefreshToken)
}

func (u *authUsecase) Logout(ctx context.Context, params RefreshTokenParams) error {
	if err := validate(u.validator, params); err != nil {
		return err
	}

	return u.sessions.Revoke(ctx, params.RefreshToken)
}

// recordLogin is best effort; a missing identity stamp never blocks a login.
func recordLogin(
	ctx context.Context,
	identityRepo repository.IdentityRepository,
	logger *zerolog.Logger,
	account *model.Account,
	provider string,
) {
	if _, err := identityRepo.RecordLogin(ctx, account.ID.Hex(), provider, account.Email); err != nil {
		logger.Warn().Err(err).
			Str("user_id", account.ID.Hex()).
			Str("provider", provider).
			Msg("failed to record login identity")
	}
}
