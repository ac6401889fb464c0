// Package stimulus validates untrusted input before it reaches the propagation engine.
package stimulus

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxSize is 4KB, far beyond what a default 100 node graph can consume.
const DefaultMaxSize = 4096

var (
	ErrTooLarge    = errors.New("stimulus exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("stimulus contains invalid UTF-8 sequences")
)

// Sanitize enforces the size limit in bytes and UTF-8 validity.
// A non-positive maxSize means DefaultMaxSize.
// Control characters are kept: every code point seeds a node.
func Sanitize(input string, maxSize int) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(input) > maxSize {
		// Rejected rather than truncated so the seed is never silently altered.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(input), maxSize)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return input, nil
}
