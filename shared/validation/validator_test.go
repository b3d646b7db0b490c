package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Email   string `json:"email"   validate:"required,email"`
	Country string `json:"country" validate:"required,oneof=UAE UZB"`
	Code    string `json:"code"    validate:"omitempty,numeric,len=6"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(signupInput{Email: "a@x.com", Country: "UAE"}))

	err := v.Struct(signupInput{Email: "not-an-email", Country: "FRA", Code: "12ab"})
	require.Error(t, err)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "country")
	assert.Contains(t, fields, "code")
	assert.Equal(t, "email must be a valid email address", fields["email"])
}
