// Package sha256 hashes raw page captures for integrity checks.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements casequery.Hasher using SHA-256.
type Hasher struct{}

// New creates a new Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex-encoded SHA-256 digest of data.
func (Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
