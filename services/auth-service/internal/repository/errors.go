package repository

import "errors"

var (
	ErrAccountNotFound             = errors.New("account not found")
	ErrAccountConflict             = errors.New("account with this email or handle already exists")
	ErrPendingRegistrationNotFound = errors.New("pending registration not found")
	ErrSessionNotFound             = errors.New("session not found")
)

// One-time code ledger errors.
var (
	ErrOTPCodeNotFound    = errors.New("otp code not found")
	ErrCodeInvalid        = errors.New("otp code invalid")
	ErrCodeExpired        = errors.New("otp code expired")
	ErrCodeAlreadyUsed    = errors.New("otp code already used")
	ErrIssueConflict      = errors.New("concurrent otp issuance for the same email and purpose")
	ErrInvalidPurpose     = errors.New("invalid otp purpose")
	ErrInvalidIssuePolicy = errors.New("invalid otp issue policy")
)
