package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OTPPurpose is the outcome a one-time code authorizes. The zero value is invalid.
type OTPPurpose uint8

const (
	OTPPurposeLogin OTPPurpose = iota + 1
	OTPPurposeSignup
)

func (p OTPPurpose) String() string {
	switch p {
	case OTPPurposeLogin:
		return "login"
	case OTPPurposeSignup:
		return "signup"
	default:
		return fmt.Sprintf("OTPPurpose(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the declared purposes.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeLogin, OTPPurposeSignup:
		return true
	default:
		return false
	}
}

// ParseOTPPurpose converts the string form back into an OTPPurpose.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch s {
	case "login":
		return OTPPurposeLogin, nil
	case "signup":
		return OTPPurposeSignup, nil
	default:
		return 0, fmt.Errorf("unknown otp purpose %q", s)
	}
}

// OTPCode is a record in the one-time code ledger. Only the SHA-256 digest of
// the code is stored.
type OTPCode struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Email      string        `bson:"email"`
	Purpose    OTPPurpose    `bson:"purpose"`
	CodeHash   string        `bson:"code_hash"`
	Consumed   bool          `bson:"consumed"`
	Superseded bool          `bson:"superseded"`
	IssuedAt   time.Time     `bson:"issued_at"`
	ExpiresAt  time.Time     `bson:"expires_at"`
	ConsumedAt *time.Time    `bson:"consumed_at,omitempty"`
}

// IsExpired reports whether the code can no longer be used at now.
func (c *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsLive reports whether the code is unconsumed and unexpired at now.
func (c *OTPCode) IsLive(now time.Time) bool {
	return !c.Consumed && !c.IsExpired(now)
}
