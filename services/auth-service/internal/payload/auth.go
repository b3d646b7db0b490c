package payload

import (
	"time"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
)

type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

func NewTokenResponse(tokens *authtypes.Tokens) TokenResponse {
	return TokenResponse{
		AccessToken:           tokens.AccessToken,
		RefreshToken:          tokens.RefreshToken,
		TokenType:             "Bearer",
		AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
	}
}

type AccountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Handle      string    `json:"handle"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Country     string    `json:"country,omitempty"`
	Role        string    `json:"role"`
	HasPassword bool      `json:"has_password"`
	Providers   []string  `json:"providers,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewAccountResponse(account *model.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID.Hex(),
		Email:       account.Email,
		Handle:      account.Handle,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		PhoneNumber: account.PhoneNumber,
		Country:     account.Country,
		Role:        string(account.Role),
		HasPassword: account.HasPassword(),
		CreatedAt:   account.CreatedAt,
	}
}

// RegisterResponse is returned by every flow that creates an account.
type RegisterResponse struct {
	Account AccountResponse `json:"account"`
	TokenResponse
}
