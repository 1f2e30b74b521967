// Package id generates identifiers for shelfwise records.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed NanoID, e.g. "shelf-V1StGXR8_Z5jdHi6B-myT".
// The prefix makes IDs self-describing in logs and URLs.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use it for fixtures and startup code only.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// NewUUID returns a random (v4) UUID string. Join-table rows such as label
// assignments use UUIDs since they are never shown to users.
func NewUUID() string {
	return uuid.NewString()
}
