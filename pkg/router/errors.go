package router

import (
	"fmt"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// PatternCompilationError reports a route pattern that could not be
// translated into a regular expression. The route tree is left untouched.
type PatternCompilationError struct {
	Pattern string
	Segment string
	Err     error
}

func (e *PatternCompilationError) Error() string {
	if e.Segment != "" && e.Segment != e.Pattern {
		return fmt.Sprintf("router: pattern %q: segment %q: %v", e.Pattern, e.Segment, e.Err)
	}
	return fmt.Sprintf("router: pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternCompilationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid or conflicting Configure option.
type ConfigurationError struct {
	Option string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("router: option %s: %v", e.Option, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func patternError(pattern, segment, format string, args ...any) error {
	return &PatternCompilationError{
		Pattern: pattern,
		Segment: segment,
		Err:     werrors.New("W101").WithDetailf(format, args...),
	}
}

func configError(option, format string, args ...any) error {
	return &ConfigurationError{
		Option: option,
		Err:    werrors.New("W102").WithDetailf(format, args...),
	}
}

// routeError builds a coded error for an invalid registration.
func routeError(code, format string, args ...any) error {
	return werrors.New(code).WithDetailf(format, args...)
}

// Navigation errors.
var (
	// ErrNotInitialized is returned by navigation calls made before Init
	// or after Destroy.
	ErrNotInitialized error = werrors.New("W203")

	// ErrCannotPush is returned when the attached source is not a Pusher.
	ErrCannotPush error = werrors.New("W202")
)
