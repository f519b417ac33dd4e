package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// CheckAdminCode compares the submitted admin authorization code
// against the configured SHA-256 hex digest. An empty configured hash
// fails closed: no code is ever accepted.
func CheckAdminCode(code, wantHashHex string) bool {
	if wantHashHex == "" {
		return false
	}
	sum := sha256.Sum256([]byte(code))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHashHex)) == 1
}
