package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "route error", code: "W101", wantMsg: "Malformed route pattern", wantCat: CategoryRoute},
		{name: "navigation error", code: "W201", wantMsg: "Invalid navigation path", wantCat: CategoryNavigation},
		{name: "content error", code: "W301", wantMsg: "Content not found", wantCat: CategoryContent},
		{name: "config error", code: "W403", wantMsg: "Malformed route map", wantCat: CategoryConfig},
		{name: "unknown error code", code: "W999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	base := fmt.Errorf("missing )")
	err := New("W101").WithDetailf("pattern %q", "/(a").Wrap(base)

	want := `W101: Malformed route pattern: pattern "/(a": missing )`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, base) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("W102")
	if FromError(coded, "W101") != coded {
		t.Error("FromError should return an existing WaypointError unchanged")
	}

	wrapped := FromError(stderrors.New("boom"), "W302")
	if wrapped.Code != "W302" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v, want code W302 wrapping the cause", wrapped)
	}
}

func TestWithLocationReadsContext(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "routes.yaml")
	content := "a: one\nb: two\nc: three\nd: four\ne: five\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("W403").WithLocation(file, 3, 1)
	if len(err.Context) != 5 {
		t.Fatalf("len(Context) = %d, want 5", len(err.Context))
	}
	if err.Context[2] != "c: three" {
		t.Errorf("Context[2] = %q, want %q", err.Context[2], "c: three")
	}
	if got := err.Location.String(); got != file+":3:1" {
		t.Errorf("Location = %q", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W101").
		WithDetail(`pattern "/(a"`).
		WithSuggestion("close the group")

	out := err.Format()
	for _, want := range []string{
		"ERROR W101: Malformed route pattern",
		`pattern "/(a"`,
		"Hint: close the group",
		"Learn more: https://waypoint.vango.dev/errors/W101",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFprintUnwrapsChain(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("loading: %w", New("W401")))
	if !strings.Contains(buf.String(), "ERROR W401") {
		t.Errorf("Fprint output = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Fprint output = %q", buf.String())
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("W105"); !ok {
		t.Error("W105 should be registered")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three four", 9, []string{"one two", "three", "four"}},
		{"averyveryverylongword x", 5, []string{"averyveryverylongword", "x"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestFormatMarksLocation(t *testing.T) {
	DisableColors()
	defer EnableColors()

	file := filepath.Join(t.TempDir(), "routes.toml")
	if err := os.WriteFile(file, []byte("[a]\non = 'blog'\n[b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("W403").WithLocation(file, 3, 2)
	if err.ContextStart != 1 {
		t.Errorf("ContextStart = %d, want 1", err.ContextStart)
	}

	out := err.Format()
	if !strings.Contains(out, "→    3 │ [b") {
		t.Errorf("Format() does not mark line 3:\n%s", out)
	}
	if !strings.Contains(out, "│  ^") {
		t.Errorf("Format() does not mark column 2:\n%s", out)
	}
}
