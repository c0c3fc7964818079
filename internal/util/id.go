// Package util holds small helpers shared across services.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 128-bit hex identifier, prefixed when a
// prefix is given (jti_…, rft_…). Refresh tokens lean on this entropy,
// so the size is not negotiable.
func NewID(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	if prefix == "" {
		return hex.EncodeToString(buf)
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
