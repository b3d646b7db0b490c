package payload

import "time"

const (
	LoginCodeAckMessage  = "If an account exists for this email, a sign-in code has been sent."
	SignupCodeAckMessage = "A confirmation code has been sent to your email."

	DeliveryFailed = "failed"
)

type AckResponse struct {
	Message string `json:"message"`
}

type SignupRequestResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
	// Delivery is "failed" when the code was issued but could not be sent.
	Delivery string `json:"delivery,omitempty"`
}
