// Package checksum fingerprints document content so unchanged documents can
// skip re-indexing and writers can detect concurrent edits.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether want is empty or equals the digest of data.
// An empty want means the caller did not ask for a check.
func Matches(data []byte, want string) bool {
	return want == "" || Sum(data) == want
}
