// Package cachekey derives fixed-length storage keys from query text.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 of query.
func Hash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
