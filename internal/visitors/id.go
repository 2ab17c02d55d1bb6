// Package visitors turns anchor payloads into visitor identifiers.
package visitors

import (
	"fmt"
	"regexp"

	"anchorprint/internal/anchor"
	"anchorprint/internal/hasher"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// ID canonicalizes the anchor and hashes it. The result is 16 lowercase hex
// characters and depends on nothing but the anchor: no salt, no clock.
func ID(p anchor.Payload) (string, error) {
	id, err := hasher.Sum(p)
	if err != nil {
		return "", fmt.Errorf("visitor id: %w", err)
	}
	return id, nil
}

// ValidID reports whether s has the shape of a visitor identifier.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}
