package mocks

import (
	"context"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/tezrent-api/services/auth-service/pkg/types"
)

// MockAuthUsecase implements usecase.AuthUsecase for handler tests
type MockAuthUsecase struct {
	LoginFunc         func(ctx context.Context, params usecase.LoginParams) (*authtypes.Tokens, error)
	RegisterFunc      func(ctx context.Context, params usecase.RegisterParams) (*usecase.AuthResult, error)
	RefreshTokensFunc func(ctx context.Context, params usecase.RefreshTokenParams) (*authtypes.Tokens, error)
	LogoutFunc        func(ctx context.Context, params usecase.RefreshTokenParams) error
}

func (m *MockAuthUsecase) Login(ctx context.Context, params usecase.LoginParams) (*authtypes.Tokens, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, params)
	}
	return &authtypes.Tokens{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *MockAuthUsecase) Register(ctx context.Context, params usecase.RegisterParams) (*usecase.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return &usecase.AuthResult{
		Account: &model.Account{Email: params.Email, Handle: params.Handle, Role: model.Role(params.Role), Active: true},
		Tokens:  &authtypes.Tokens{AccessToken: "access", RefreshToken: "refresh"},
	}, nil
}

func (m *MockAuthUsecase) RefreshTokens(ctx context.Context, params usecase.RefreshTokenParams) (*authtypes.Tokens, error) {
	if m.RefreshTokensFunc != nil {
		return m.RefreshTokensFunc(ctx, params)
	}
	return &authtypes.Tokens{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (m *MockAuthUsecase) Logout(ctx context.Context, params usecase.RefreshTokenParams) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, params)
	}
	return nil
}

// MockOTPUsecase implements usecase.OTPUsecase for handler tests
type MockOTPUsecase struct {
	RequestLoginOTPFunc  func(ctx context.Context, params usecase.RequestLoginOTPParams) error
	VerifyLoginOTPFunc   func(ctx context.Context, params usecase.VerifyOTPParams) (*authtypes.Tokens, error)
	RequestSignupOTPFunc func(ctx context.Context, params usecase.RequestSignupOTPParams) (*usecase.SignupRequestResult, error)
	VerifySignupOTPFunc  func(ctx context.Context, params usecase.VerifyOTPParams) (*usecase.AuthResult, error)
}

func (m *MockOTPUsecase) RequestLoginOTP(ctx context.Context, params usecase.RequestLoginOTPParams) error {
	if m.RequestLoginOTPFunc != nil {
		return m.RequestLoginOTPFunc(ctx, params)
	}
	return nil
}

func (m *MockOTPUsecase) VerifyLoginOTP(ctx context.Context, params usecase.VerifyOTPParams) (*authtypes.Tokens, error) {
	if m.VerifyLoginOTPFunc != nil {
		return m.VerifyLoginOTPFunc(ctx, params)
	}
	return &authtypes.Tokens{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *MockOTPUsecase) RequestSignupOTP(
	ctx context.Context,
	params usecase.RequestSignupOTPParams,
) (*usecase.SignupRequestResult, error) {
	if m.RequestSignupOTPFunc != nil {
		return m.RequestSignupOTPFunc(ctx, params)
	}
	return &usecase.SignupRequestResult{}, nil
}

func (m *MockOTPUsecase) VerifySignupOTP(ctx context.Context, params usecase.VerifyOTPParams) (*usecase.AuthResult, error) {
	if m.VerifySignupOTPFunc != nil {
		return m.VerifySignupOTPFunc(ctx, params)
	}
	return &usecase.AuthResult{
		Account: &model.Account{Email: params.Email, Active: true},
		Tokens:  &authtypes.Tokens{AccessToken: "access", RefreshToken: "refresh"},
	}, nil
}

// MockAccountUsecase implements usecase.AccountUsecase for handler tests
type MockAccountUsecase struct {
	GetProfileFunc  func(ctx context.Context, accountID string) (*usecase.Profile, error)
	SetPasswordFunc func(ctx context.Context, accountID string, params usecase.SetPasswordParams) error
}

func (m *MockAccountUsecase) GetProfile(ctx context.Context, accountID string) (*usecase.Profile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, accountID)
	}
	return &usecase.Profile{Account: &model.Account{Email: "user@example.com", Active: true}}, nil
}

func (m *MockAccountUsecase) SetPassword(ctx context.Context, accountID string, params usecase.SetPasswordParams) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, accountID, params)
	}
	return nil
}

// MockSessionIssuer implements usecase.SessionIssuer for handler tests
type MockSessionIssuer struct {
	MintFunc              func(ctx context.Context, accountID string, role model.Role) (*authtypes.Tokens, error)
	VerifyAccessTokenFunc func(token string) (*authtypes.JWTClaims, error)
	RefreshFunc           func(ctx context.Context, refreshToken string) (*authtypes.Tokens, error)
	RevokeFunc            func(ctx context.Context, refreshToken string) error
}

func (m *MockSessionIssuer) Mint(ctx context.Context, accountID string, role model.Role) (*authtypes.Tokens, error) {
	if m.MintFunc != nil {
		return m.MintFunc(ctx, accountID, role)
	}
	return &authtypes.Tokens{AccessToken: "access-" + accountID, RefreshToken: "refresh-" + accountID}, nil
}

func (m *MockSessionIssuer) VerifyAccessToken(token string) (*authtypes.JWTClaims, error) {
	if m.VerifyAccessTokenFunc != nil {
		return m.VerifyAccessTokenFunc(token)
	}
	return nil, usecase.ErrInvalidToken
}

func (m *MockSessionIssuer) Refresh(ctx context.Context, refreshToken string) (*authtypes.Tokens, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, usecase.ErrInvalidToken
}

func (m *MockSessionIssuer) Revoke(ctx context.Context, refreshToken string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, refreshToken)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ usecase.AuthUsecase    = (*MockAuthUsecase)(nil)
	_ usecase.OTPUsecase     = (*MockOTPUsecase)(nil)
	_ usecase.AccountUsecase = (*MockAccountUsecase)(nil)
	_ usecase.SessionIssuer  = (*MockSessionIssuer)(nil)
)
