// Package idgen generates prefixed random identifiers for client-side tracking.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// PrefixCorrelation tags per-call correlation IDs sent as X-Request-ID.
	PrefixCorrelation = "req"
	// PrefixClient tags the process-wide client instance ID.
	PrefixClient = "cli"
)

// NewID returns a prefixed random hex identifier, e.g. "req_3f9a…".
// Identifiers are opaque; the prefix only aids log grepping.
func NewID(prefix string) (string, error) {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(raw)), nil
}

// MustNewID is NewID for call sites where a rand failure is unrecoverable
// anyway (correlation IDs attached to outgoing calls).
func MustNewID(prefix string) string {
	id, err := NewID(prefix)
	if err != nil {
		panic(err)
	}
	return id
}
