package usecase

import (
	"errors"
	"fmt"

	"github.com/vasapolrittideah/tezrent-api/shared/validation"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrRegistrationExpired  = errors.New("registration expired, request a new signup code")
	ErrValidationFailed     = errors.New("validation failed")
	ErrUnavailable          = errors.New("service temporarily unavailable")
	ErrRateLimited          = errors.New("too many code requests")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// validate runs the struct rules and wraps failures so callers can match
// ErrValidationFailed and still reach the per-field messages.
func validate(v *validation.Validator, params any) error {
	if err := v.Struct(params); err != nil {
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			return fmt.Errorf("%w: %w", ErrValidationFailed, fields)
		}
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return nil
}
