package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the Cashfree webhook signature:
// base64(HMAC-SHA256(secret, timestamp + rawBody)).
func Sign(secret, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the raw request body.
// An unset secret never verifies.
func VerifySignature(secret, timestamp string, rawBody []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, timestamp, rawBody)
	return hmac.Equal([]byte(expected), []byte(signature))
}
