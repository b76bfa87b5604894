package audit

import (
	"errors"
	"strings"
)

// DefaultScheme is prepended to store addresses typed without one
const DefaultScheme = "https"

// ErrInvalidURL is returned for input that cannot name a store
var ErrInvalidURL = errors.New("invalid store url")

// NormalizeURL turns user input into an absolute URL. Input that already
// carries a scheme is kept as typed; everything else gets the default scheme.
func NormalizeURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return "", ErrInvalidURL
	}
	if strings.ContainsAny(clean, " \t\r\n") {
		return "", ErrInvalidURL
	}

	if hasScheme(clean) {
		return clean, nil
	}
	clean = strings.TrimPrefix(clean, "//")
	if clean == "" {
		return "", ErrInvalidURL
	}
	return DefaultScheme + "://" + clean, nil
}

// hasScheme reports whether s starts with "<scheme>://"
func hasScheme(s string) bool {
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return false
	}
	for i, r := range s[:idx] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
