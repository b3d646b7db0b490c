package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	IdentityProviderPassword = "password"
	IdentityProviderEmailOTP = "email_otp"
)

// Identity records an authentication path an account has used, such as
// password or email one-time code, along with when it was last used.
type Identity struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	UserID      string        `bson:"user_id"`
	Provider    string        `bson:"provider"`
	Email       string        `bson:"email"`
	LastLoginAt time.Time     `bson:"last_login_at"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}
