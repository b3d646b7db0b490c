package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

// AccountUsecase defines the use cases available to an authenticated account.
type AccountUsecase interface {
	GetProfile(ctx context.Context, accountID string) (*Profile, error)
	// SetPassword adds or changes the password credential. Accounts that
	// already have a password must present it.
	SetPassword(ctx context.Context, accountID string, params SetPasswordParams) error
}

// Profile is an account together with the login methods it has used.
type Profile struct {
	Account   *model.Account
	Providers []string
}

type SetPasswordParams struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

type accountUsecase struct {
	accountRepo  repository.AccountRepository
	identityRepo repository.IdentityRepository
	validator    *validation.Validator
	logger       *zerolog.Logger
}

func NewAccountUsecase(
	accountRepo repository.AccountRepository,
	identityRepo repository.IdentityRepository,
	validator *validation.Validator,
	logger *zerolog.Logger,
) AccountUsecase {
	return &accountUsecase{
		accountRepo:  accountRepo,
		identityRepo: identityRepo,
		validator:    validator,
		logger:       logger,
	}
}

func (u *accountUsecase) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	account, err := u.getActiveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Account: account}

	identities, err := u.identityRepo.GetIdentitiesByUserID(ctx, accountID)
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", accountID).Msg("failed to load identities")
		return profile, nil
	}
	for _, identity := range identities {
		profile.Providers = append(profile.Providers, identity.Provider)
	}

	return profile, nil
}

func (u *accountUsecase) SetPassword(ctx context.Context, accountID string, params SetPasswordParams) error {
	if err := validate(u.validator, params); err != nil {
		return err
	}

	account, err := u.getActiveAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if account.HasPassword() {
		if params.CurrentPassword == "" {
			return fmt.Errorf("%w: %w", ErrValidationFailed,
				validation.FieldErrors{"current_password": "current_password is a required field"})
		}
		ok, err := security.VerifyPassword(params.CurrentPassword, account.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCredentials
		}
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, accountID, repository.UpdateAccountParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidToken
		}
		return unavailable(err)
	}

	return nil
}

// getActiveAccount resolves the account behind a verified access token. A
// missing or disabled account makes the token unusable.
func (u *accountUsecase) getActiveAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, unavailable(err)
	}
	if !account.Active {
		return nil, ErrInvalidToken
	}

	return account, nil
}
