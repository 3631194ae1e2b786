package update

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest returns the SHA-256 hex digest of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyHash checks data against an expected SHA-256 hex digest and returns
// an IntegrityError on mismatch. Digest comparison is case-insensitive since
// authorities are inconsistent about hex casing.
func VerifyHash(path string, data []byte, expected string) error {
	actual := Digest(data)
	if !strings.EqualFold(actual, expected) {
		return &IntegrityError{Path: path, Expected: strings.ToLower(expected), Actual: actual}
	}
	return nil
}
