package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryRoute      Category = "route"
	CategoryNavigation Category = "navigation"
	CategoryContent    Category = "content"
	CategoryConfig     Category = "config"
)

// Location represents a source location, usually inside a route map file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// WaypointError is a coded error. Build one with New and the With
// methods; they modify and return the receiver.
type WaypointError struct {
	Code     string // registry key, such as "W101"
	Category Category
	Message  string
	Detail   string

	// Location points into the file the error was found in. Context holds
	// the lines around it, the first being line ContextStart.
	Location     *Location
	Context      []string
	ContextStart int

	Suggestion string
	DocURL     string
	Wrapped    error
}

func (e *WaypointError) Error() string {
	parts := make([]string, 0, 4)
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *WaypointError) Unwrap() error {
	return e.Wrapped
}

// WithLocation records where the error is and the lines around it.
func (e *WaypointError) WithLocation(file string, line, column int) *WaypointError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.ContextStart, e.Context = excerpt(file, line, contextRadius)
	return e
}

// WithSuggestion adds a hint on how to fix the error.
func (e *WaypointError) WithSuggestion(s string) *WaypointError {
	e.Suggestion = s
	return e
}

func (e *WaypointError) WithDetail(d string) *WaypointError {
	e.Detail = d
	return e
}

func (e *WaypointError) WithDetailf(format string, args ...any) *WaypointError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func (e *WaypointError) Wrap(err error) *WaypointError {
	e.Wrapped = err
	return e
}

const contextRadius = 2

// excerpt returns the lines of file within radius of line, and the number
// of the first one. Unreadable files yield nothing.
func excerpt(file string, line, radius int) (int, []string) {
	data, err := os.ReadFile(file)
	if err != nil || line < 1 {
		return 0, nil
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if line > len(lines) {
		return 0, nil
	}
	first := max(line-radius, 1)
	last := min(line+radius, len(lines))
	return first, lines[first-1 : last]
}

// New creates an error from a registered code. Unregistered codes get
// the message "Unknown error".
func New(code string) *WaypointError {
	t, ok := registry[code]
	if !ok {
		return &WaypointError{Code: code, Message: "Unknown error"}
	}
	return &WaypointError{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		DocURL:   t.DocURL,
	}
}

// FromError returns the WaypointError in err's chain, or wraps err in a
// new one with code.
func FromError(err error, code string) *WaypointError {
	if err == nil {
		return nil
	}
	var we *WaypointError
	if stderrors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}
