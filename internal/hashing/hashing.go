// Package hashing provides the one-way digest applied to personally
// identifying fields before they leave the service. The downstream
// conversion API matches users on normalized SHA-256 digests, so
// normalization (trim + lowercase) must happen before hashing.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest returns the hex-encoded SHA-256 of the trimmed, lowercased input.
// Empty or whitespace-only input yields "" so composers can omit the field.
// Callers must not retain or transmit the raw value after digesting.
func Digest(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
