package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	SignatureHeader  = "x-zm-signature"
	TimestampHeader  = "x-zm-request-timestamp"
	SignatureVersion = "v0"
)

// Sign returns the hex encoded HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignRequest builds the x-zm-signature value for a raw request body:
// "v0=" + hex(HMAC(secret, "v0:" + timestamp + ":" + body)).
func SignRequest(secret, timestamp string, body []byte) string {
	message := make([]byte, 0, len(SignatureVersion)+len(timestamp)+len(body)+2)
	message = append(message, SignatureVersion...)
	message = append(message, ':')
	message = append(message, timestamp...)
	message = append(message, ':')
	message = append(message, body...)
	return SignatureVersion + "=" + Sign(secret, message)
}
