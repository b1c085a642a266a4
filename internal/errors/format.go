package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format and Fprint output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns ANSI escapes back on.
func EnableColors() {
	colorEnabled = true
}

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// wrapWidth is the column long paragraphs are wrapped at.
const wrapWidth = 70

// Format renders the error for a terminal: header, location with the
// surrounding lines, detail paragraphs, hint and documentation link.
func (e *WaypointError) Format() string {
	var b strings.Builder

	title := "ERROR: "
	if e.Code != "" {
		title = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(&b, "\n%s%s\n\n", paint(title, ansiRed, ansiBold), e.Message)

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
		e.writeContext(&b)
	}

	for _, para := range []string{e.Detail, wrappedText(e.Wrapped), Explain(e.Code)} {
		if para == "" {
			continue
		}
		for _, line := range wrapText(para, wrapWidth) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint("Learn more: ", ansiGray), paint(e.DocURL, ansiBlue))
	}
	return b.String()
}

func (e *WaypointError) writeContext(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	for i, line := range e.Context {
		n := e.ContextStart + i
		marker := "    "
		if n == e.Location.Line {
			marker = "  " + paint("→ ", ansiRed)
		}
		fmt.Fprintf(b, "%s%4d%s%s\n", marker, n, paint(" │ ", ansiGray), line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint("│ ", ansiGray), strings.Repeat(" ", e.Location.Column-1), paint("^", ansiRed))
		}
	}
	b.WriteString("\n")
}

func wrappedText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// wrapText breaks text into lines of at most width columns, splitting on
// whitespace. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// Fprint writes err to w, using the long format for coded errors found
// anywhere in its chain.
func Fprint(w io.Writer, err error) {
	var we *WaypointError
	if errors.As(err, &we) {
		fmt.Fprint(w, we.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err.Error())
}
