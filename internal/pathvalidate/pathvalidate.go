// Package pathvalidate rejects unsafe note paths at the tool-dispatcher
// boundary, before any I/O against the document store.
package pathvalidate

import (
	"fmt"
	"strings"

	"github.com/olifog/yamos/internal/yerr"
)

// allowedExtra is the set of non-alphanumeric characters permitted in a
// note path, in addition to ASCII letters, digits, and space.
const allowedExtra = " -_./()'"

// Validate rejects path if it is empty, does not end in ".md", contains
// "..", starts with "/", contains a NUL byte, or contains any character
// outside [A-Za-z0-9 \-_./()']. It names the first offending character
// in the returned error.
func Validate(path string) error {
	if path == "" {
		return yerr.New(yerr.Validation, "note path cannot be empty")
	}
	if !strings.HasSuffix(path, ".md") {
		return yerr.New(yerr.Validation, "note path must end with .md")
	}
	if strings.Contains(path, "..") {
		return yerr.New(yerr.Validation, "note path cannot contain '..'")
	}
	if strings.HasPrefix(path, "/") {
		return yerr.New(yerr.Validation, "note path cannot start with '/'")
	}
	if strings.ContainsRune(path, 0) {
		return yerr.New(yerr.Validation, "note path cannot contain null bytes")
	}
	for _, c := range path {
		if isAllowed(c) {
			continue
		}
		return yerr.New(yerr.Validation, fmt.Sprintf("note path contains invalid character: %q", c))
	}
	return nil
}

func isAllowed(c rune) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	default:
		return strings.ContainsRune(allowedExtra, c)
	}
}

// ValidateAll validates every element of a batch of paths, returning the
// first error encountered (with its index folded into the message) or nil.
func ValidateAll(paths []string) error {
	for i, p := range paths {
		if err := Validate(p); err != nil {
			return fmt.Errorf("path[%d] %q: %w", i, p, err)
		}
	}
	return nil
}
