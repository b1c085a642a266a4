package router

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"", nil},
		{"/", nil},
		{"/blog", []string{"blog"}},
		{"/a/b/", []string{"a", "b"}},
		{"//a//b", []string{"a", "b"}},
		{`/:channel/:category/(.*\.html)`, []string{":channel", ":category", `(.*\.html)`}},
		{`/(.*/.*\.html)`, []string{`(.*/.*\.html)`}},
		{"/[/]x/y", []string{"[/]x", "y"}},
		{`/a\/b/c`, []string{`a\/b`, "c"}},
	}

	for _, tt := range tests {
		got, err := splitPattern(tt.pattern, "/")
		if err != nil {
			t.Errorf("splitPattern(%q) error = %v", tt.pattern, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("splitPattern(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
		}
	}
}

func TestSplitPatternMalformed(t *testing.T) {
	tests := []string{
		"/(a",
		"/a)",
		"/((a)/b",
		"/[a",
		`/a\`,
	}

	for _, pattern := range tests {
		_, err := splitPattern(pattern, "/")
		var pce *PatternCompilationError
		if !errors.As(err, &pce) {
			t.Errorf("splitPattern(%q) error = %v, want *PatternCompilationError", pattern, err)
			continue
		}
		if pce.Pattern != pattern {
			t.Errorf("splitPattern(%q) error pattern = %q", pattern, pce.Pattern)
		}
	}
}

func TestSplitPatternCustomDelimiter(t *testing.T) {
	got, err := splitPattern("::a::(b::c)::d", "::")
	if err != nil {
		t.Fatalf("splitPattern() error = %v", err)
	}
	want := []string{"a", "(b::c)", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitPattern() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileSegment(t *testing.T) {
	r := New()

	tests := []struct {
		seg  string
		kind nodeKind
		key  string
	}{
		{"blog", kindLiteral, "blog"},
		{"about.html", kindLiteral, `about\.html`},
		{":id", kindParam, paramClass},
		{"post-:id", kindParam, "post-" + paramClass},
		{":a.:b", kindParam, paramClass + `\.` + paramClass},
		{"*", kindWildcard, wildcardClass},
		{"files*", kindWildcard, "files" + wildcardClass},
		{`(.*\.html)`, kindWildcard, `(.*\.html)`},
		{`(\d+)`, kindWildcard, `(\d+)`},
		{"(a|b)", kindWildcard, "(a|b)"},
		{".*", kindWildcard, ".*"},
	}

	for _, tt := range tests {
		got, err := r.compileSegment("/"+tt.seg, tt.seg)
		if err != nil {
			t.Errorf("compileSegment(%q) error = %v", tt.seg, err)
			continue
		}
		if got.kind != tt.kind {
			t.Errorf("compileSegment(%q).kind = %v, want %v", tt.seg, got.kind, tt.kind)
		}
		if got.key != tt.key {
			t.Errorf("compileSegment(%q).key = %q, want %q", tt.seg, got.key, tt.key)
		}
		if got.source != tt.seg {
			t.Errorf("compileSegment(%q).source = %q", tt.seg, got.source)
		}
	}
}

func TestCompileSegmentInvalidRegexp(t *testing.T) {
	r := New()

	_, err := r.compileSegment("/(?P<x", "(?P<x")
	var pce *PatternCompilationError
	if !errors.As(err, &pce) {
		t.Fatalf("compileSegment() error = %v, want *PatternCompilationError", err)
	}
	if pce.Segment != "(?P<x" {
		t.Errorf("Segment = %q", pce.Segment)
	}
}

func TestParamExpression(t *testing.T) {
	r := New()
	if err := r.Param(":id", `[0-9]+`); err != nil {
		t.Fatalf("Param() error = %v", err)
	}

	got, err := r.compileSegment("/:id", ":id")
	if err != nil {
		t.Fatalf("compileSegment() error = %v", err)
	}
	if got.key != "([0-9]+)" {
		t.Errorf("key = %q, want %q", got.key, "([0-9]+)")
	}

	// other names keep the default class
	got, _ = r.compileSegment("/:slug", ":slug")
	if got.key != paramClass {
		t.Errorf("key = %q, want default class", got.key)
	}
}

func TestParamRejectsInvalidExpressions(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		pattern string
	}{
		{"id", `(\d+)`},
		{"id", `[`},
		{"", `\d+`},
		{"bad name", `\d+`},
	}

	for _, tt := range tests {
		err := r.Param(tt.name, tt.pattern)
		var pce *PatternCompilationError
		if !errors.As(err, &pce) {
			t.Errorf("Param(%q, %q) error = %v, want *PatternCompilationError", tt.name, tt.pattern, err)
		}
	}
}

func TestRegexpCache(t *testing.T) {
	c := newRegexpCache()

	a, err := c.get("^/a")
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	b, _ := c.get("^/a")
	if a != b {
		t.Error("get() should return the cached expression")
	}
	if c.len() != 1 {
		t.Errorf("len() = %d, want 1", c.len())
	}

	if _, err := c.get("("); err == nil {
		t.Error("get(\"(\") should fail")
	}
	if c.len() != 1 {
		t.Errorf("len() = %d after failed compile, want 1", c.len())
	}
}
