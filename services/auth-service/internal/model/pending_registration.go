package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PendingRegistration is a signup awaiting confirmation by a signup code.
type PendingRegistration struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Email       string        `bson:"email"`
	Handle      string        `bson:"handle"`
	FirstName   string        `bson:"first_name"`
	LastName    string        `bson:"last_name"`
	PhoneNumber string        `bson:"phone_number,omitempty"`
	Country     string        `bson:"country,omitempty"`
	Role        Role          `bson:"role"`
	CreatedAt   time.Time     `bson:"created_at"`
	ExpiresAt   time.Time     `bson:"expires_at"`
}

// NewAccount materializes the account described by the registration.
// The account has no password credential.
func (p *PendingRegistration) NewAccount() *Account {
	return &Account{
		Email:       p.Email,
		Handle:      p.Handle,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhoneNumber: p.PhoneNumber,
		Country:     p.Country,
		Role:        p.Role,
		Active:      true,
	}
}
