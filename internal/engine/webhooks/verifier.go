package webhooks

import (
	"crypto/hmac"
	"errors"
)

var (
	ErrSecretNotConfigured = errors.New("webhook secret token not configured")
	ErrSignatureMismatch   = errors.New("zoom webhook signature does not match expected signature")
)

// Verifier authenticates Zoom webhook deliveries.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify recomputes the v0 signature over the raw body and compares it with
// the header value in constant time. The body is not inspected.
func (v *Verifier) Verify(body []byte, signature, timestamp string) error {
	if v.secret == "" {
		return ErrSecretNotConfigured
	}

	expected := SignRequest(v.secret, timestamp, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Challenge answers an endpoint.url_validation request.
func (v *Verifier) Challenge(plainToken string) URLValidationResponse {
	return RespondToChallenge(v.secret, plainToken)
}
