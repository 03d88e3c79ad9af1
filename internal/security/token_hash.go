package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns a SHA-256 hash of the full signed token string, hex-encoded.
// The store keeps only this digest; the raw token is never persisted.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenHashEqual performs constant-time comparison of the presented token's
// digest with the stored digest. Returns true only if they match.
func TokenHashEqual(presentedToken, storedHash string) bool {
	presentedHash := HashToken(presentedToken)
	return subtle.ConstantTimeCompare([]byte(presentedHash), []byte(storedHash)) == 1
}
