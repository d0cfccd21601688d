// Package id generates prefixed, URL-safe identifiers for catalog titles and task runs.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixTitle = "title"
	PrefixRun   = "run"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "title-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	return ok && rest != ""
}
