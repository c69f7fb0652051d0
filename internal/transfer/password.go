package transfer

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the SHA-256 hex digest of a password. Only the
// digest travels over the wire; the receiver compares digests, so the
// sender never learns how close a failed attempt was.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks a plaintext attempt against a stored digest in
// constant time.
func VerifyPassword(password, digest string) bool {
	attempt := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(digest)) == 1
}
