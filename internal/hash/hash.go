// Package hash fingerprints protocol configs.
//
// Run reports carry the fingerprint of the effective protocol so a report can
// be matched to the exact deck and reaction settings that produced it, even
// after the config file has been edited.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortLen is how many hex digits Short keeps.
const shortLen = 12

// Bytes returns the hex SHA-256 of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Short abbreviates a fingerprint for display.
func Short(fingerprint string) string {
	if len(fingerprint) <= shortLen {
		return fingerprint
	}
	return fingerprint[:shortLen]
}
