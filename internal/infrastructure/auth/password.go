package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex encoded sha256 digest stored for an account
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// VerifyPassword checks password against a stored digest
func VerifyPassword(password, hashedPassword string) bool {
	if password == "" || hashedPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(hashedPassword)) == 1
}
