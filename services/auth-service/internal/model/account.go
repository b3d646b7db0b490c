package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the profile type of an account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCompany  Role = "company"
	RoleStaff    Role = "staff"
)

// Account represents a TezRent user account. Email is the sole login identifier.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	Handle       string        `bson:"handle"`
	FirstName    string        `bson:"first_name"`
	LastName     string        `bson:"last_name"`
	PhoneNumber  string        `bson:"phone_number,omitempty"`
	Country      string        `bson:"country,omitempty"`
	Role         Role          `bson:"role"`
	PasswordHash string        `bson:"password_hash,omitempty"`
	Active       bool          `bson:"active"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

// HasPassword reports whether the account has a password credential.
// Accounts created through OTP signup start without one.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
