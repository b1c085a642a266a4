// Package routepath normalises navigation values (location hashes and
// history paths) into the paths the router dispatches on.
package routepath

import (
	"errors"
	"strings"
)

// Result contains a normalised navigation path.
type Result struct {
	// Path is the normalised path (always starts with "/", no query).
	Path string

	// Query is the query string (without leading "?").
	Query string

	// Changed indicates if the input was modified during normalisation.
	Changed bool
}

// Navigation path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrAbsoluteURL          = errors.New("absolute URL is not a navigation path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
)

// FromHash extracts the route from a location hash or a full URL carrying a
// fragment: "#/blog/tech", "#blog/tech" and "https://x/#/blog/tech" all
// yield "/blog/tech". A value without "#" is returned with a leading "/".
func FromHash(raw string) string {
	if idx := strings.LastIndex(raw, "#"); idx >= 0 {
		raw = raw[idx+1:]
	}
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	return "/" + raw
}

// Normalize turns a raw navigation value into a dispatchable path.
//
// In hash mode the value may be a location hash or a URL with a fragment.
// In history mode the value is a location path. Trailing slashes are kept,
// since strict matching depends on them.
//
// The following inputs are rejected with an error:
//   - absolute URLs in history mode ("http://", "https://", "//")
//   - paths containing backslash or NUL
//   - invalid percent escapes (e.g., %GG, %2)
func Normalize(raw string, history bool) (Result, error) {
	original := raw
	value := raw
	if history {
		if strings.HasPrefix(value, "http://") ||
			strings.HasPrefix(value, "https://") ||
			strings.HasPrefix(value, "//") {
			return Result{}, ErrAbsoluteURL
		}
		if !strings.HasPrefix(value, "/") {
			value = "/" + value
		}
	} else {
		value = FromHash(value)
	}

	path, query, _ := strings.Cut(value, "?")

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}
	if strings.HasPrefix(path, "//") {
		return Result{}, ErrInvalidPath
	}

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] == '%' {
			if i+2 >= len(path) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Explode splits a path into its segments. The leading delimiter is
// dropped; empty inner segments are kept so that Join(Explode(p)) == p for
// any path starting with the delimiter.
func Explode(path, delimiter string) []string {
	path = strings.TrimPrefix(path, delimiter)
	if path == "" {
		return []string{""}
	}
	return strings.Split(path, delimiter)
}

// Join is the inverse of Explode.
func Join(segments []string, delimiter string) string {
	return delimiter + strings.Join(segments, delimiter)
}

// StripQuery drops everything from the first "?".
func StripQuery(path string) string {
	path, _, _ = strings.Cut(path, "?")
	return path
}
